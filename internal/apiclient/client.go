package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	apperrors "github.com/target/elearn-admin/internal/errors"
	"github.com/target/elearn-admin/internal/ports"
)

// Resource names an admin API collection.
type Resource string

const (
	ResourceOverview       Resource = "overview"
	ResourceCourses        Resource = "courses"
	ResourceStudents       Resource = "students"
	ResourceTeachers       Resource = "teachers"
	ResourceAttendance     Resource = "attendance"
	ResourceCertifications Resource = "certifications"
	ResourceCommunications Resource = "communications"
	ResourceSchedules      Resource = "schedules"
	ResourceSettings       Resource = "settings"
)

// Resources lists every known resource in display order.
func Resources() []Resource {
	return []Resource{
		ResourceOverview,
		ResourceCourses,
		ResourceStudents,
		ResourceTeachers,
		ResourceAttendance,
		ResourceCertifications,
		ResourceCommunications,
		ResourceSchedules,
		ResourceSettings,
	}
}

// ParseResource resolves a case-insensitive resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Resources() {
		if r == known {
			return r, nil
		}
	}
	return "", apperrors.Validationf("unknown resource %q", s)
}

// Record is a single admin API object.
type Record map[string]any

// ID returns the record's id or _id as a string.
func (r Record) ID() string {
	for _, key := range []string{"id", "_id"} {
		if v, ok := r[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return ""
}

// listEnvelopes are the keys checked when a list body is an object.
var listEnvelopes = []string{"items", "data", "results"}

// ClientOptions configures the admin API client.
type ClientOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Authority ports.Authority
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base   http.RoundTripper
	Logger *slog.Logger
}

// Client performs CRUD calls against the admin API through the recovering Transport.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewClient creates an admin API client bound to the session authority.
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("api base URL is required")
	}
	if opts.Authority == nil {
		return nil, errors.New("api client requires a session authority")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "apiclient")

	hc := &http.Client{
		Transport: &Transport{Base: opts.Base, Authority: opts.Authority, Logger: logger},
		Timeout:   opts.Timeout,
	}
	rc := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	rc.JSONMarshal = json.Marshal
	rc.JSONUnmarshal = json.Unmarshal
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get("X-Request-ID") == "" {
			r.SetHeader("X-Request-ID", uuid.NewString())
		}
		return nil
	})

	return &Client{http: rc, logger: logger}, nil
}

// Overview fetches the dashboard summary.
func (c *Client) Overview(ctx context.Context) (Record, error) {
	return c.Get(ctx, ResourceOverview, "")
}

// List fetches a collection. Bodies may be a bare array or an object
// wrapping the array under items, data or results.
func (c *Client) List(ctx context.Context, res Resource, query map[string]string) ([]Record, error) {
	resp, err := c.http.R().SetContext(ctx).SetQueryParams(query).Get(resourcePath(res, ""))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}

	raw := gjson.ParseBytes(resp.Body())
	if !raw.IsArray() {
		found := false
		for _, key := range listEnvelopes {
			if v := raw.Get(key); v.IsArray() {
				raw, found = v, true
				break
			}
		}
		if !found {
			return nil, apperrors.Internalf("unexpected %s list response", res)
		}
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw.Raw), &records); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s list", res)
	}
	return records, nil
}

// Get fetches one record; an empty id fetches the resource root (overview, settings).
func (c *Client) Get(ctx context.Context, res Resource, id string) (Record, error) {
	resp, err := c.http.R().SetContext(ctx).Get(resourcePath(res, id))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body(), res)
}

// Create posts a new record.
func (c *Client) Create(ctx context.Context, res Resource, payload any) (Record, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(resourcePath(res, ""))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body(), res)
}

// Update replaces a record; an empty id updates the resource root (settings).
func (c *Client) Update(ctx context.Context, res Resource, id string, payload any) (Record, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Put(resourcePath(res, id))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return decodeRecord(resp.Body(), res)
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, res Resource, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ValidationField("id", "id is required")
	}
	resp, err := c.http.R().SetContext(ctx).Delete(resourcePath(res, id))
	return checkResponse(resp, err)
}

func resourcePath(res Resource, id string) string {
	if id == "" {
		return "/" + string(res)
	}
	return "/" + string(res) + "/" + url.PathEscape(id)
}

// checkResponse maps transport failures and non-2xx statuses to AppErrors.
// A final 401 or 403 maps to not_authorized.
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.MapTransportError(err)
	}
	if resp.IsSuccess() {
		return nil
	}
	return apperrors.MapStatus(resp.StatusCode(), apperrors.ResponseDetail(resp.Body()))
}

func decodeRecord(body []byte, res Resource) (Record, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s response", res)
	}
	return rec, nil
}
