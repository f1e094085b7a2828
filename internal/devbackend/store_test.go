package devbackend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceStore_CRUD(t *testing.T) {
	s := NewResourceStore()

	courses := s.List("courses")
	require.Len(t, courses, 2)
	assert.Equal(t, "Introduction to Go", courses[0]["title"])

	created := s.Create("courses", Record{"title": "Testing in Go", "id": "ignored"})
	id := created["id"].(string)
	assert.NotEqual(t, "ignored", id)

	updated, err := s.Update("courses", id, Record{"status": "published", "id": "x"})
	require.NoError(t, err)
	assert.Equal(t, "published", updated["status"])
	assert.Equal(t, id, updated["id"])

	got, err := s.Get("courses", id)
	require.NoError(t, err)
	assert.Equal(t, "Testing in Go", got["title"])

	got["title"] = "mutated"
	again, _ := s.Get("courses", id)
	assert.Equal(t, "Testing in Go", again["title"], "records are copied out")

	require.NoError(t, s.Delete("courses", id))
	assert.ErrorIs(t, s.Delete("courses", id), errRecordNotFound)
	_, err = s.Get("courses", id)
	assert.ErrorIs(t, err, errRecordNotFound)
	_, err = s.Update("courses", id, Record{})
	assert.ErrorIs(t, err, errRecordNotFound)

	assert.Empty(t, s.List("certifications"))
}

func TestResourceStore_SettingsAndOverview(t *testing.T) {
	s := NewResourceStore()

	assert.Equal(t, 2, s.Overview()["courses"])

	settings := s.UpdateSettings(Record{"siteName": "Academy"})
	assert.Equal(t, "Academy", settings["siteName"])
	assert.Equal(t, true, s.Settings()["allowRegistration"])
}
