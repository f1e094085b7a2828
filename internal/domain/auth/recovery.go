package auth

import "net/http"

// RecoveryAction is the outcome of inspecting a response from the protected API.
type RecoveryAction int

const (
	// RecoveryPassThrough hands the response to the caller unchanged.
	RecoveryPassThrough RecoveryAction = iota
	// RecoveryRefreshAndRetry refreshes the session and re-issues the request once.
	RecoveryRefreshAndRetry
	// RecoveryFail hands the 401 to the caller as a final "not authorized".
	RecoveryFail
)

func (a RecoveryAction) String() string {
	switch a {
	case RecoveryPassThrough:
		return "pass-through"
	case RecoveryRefreshAndRetry:
		return "refresh-and-retry"
	case RecoveryFail:
		return "fail"
	default:
		return "unknown"
	}
}

// RecoveryInput describes a response and the request that produced it.
type RecoveryInput struct {
	StatusCode int
	// Retried is true when the request is already the single retry.
	Retried bool
	// Replayable is false when the request body cannot be sent a second time.
	Replayable bool
}

// DecideRecovery decides how a response should be handled.
// A 401 is recovered at most once per request; a 401 on the retry is final.
func DecideRecovery(in RecoveryInput) RecoveryAction {
	if in.StatusCode != http.StatusUnauthorized {
		return RecoveryPassThrough
	}
	if in.Retried || !in.Replayable {
		return RecoveryFail
	}
	return RecoveryRefreshAndRetry
}
