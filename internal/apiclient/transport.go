// Package apiclient is the authenticated client for the admin API surface.
// Requests carry the session's bearer token, and a 401 triggers one
// refresh followed by a single retry.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	domainauth "github.com/target/elearn-admin/internal/domain/auth"
	apperrors "github.com/target/elearn-admin/internal/errors"
	"github.com/target/elearn-admin/internal/ports"
)

type retriedKey struct{}

// withRetried marks a request context as already recovered from a 401.
func withRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// Transport is an http.RoundTripper that attaches the session's bearer token
// and recovers from a 401 by refreshing once and re-issuing the request.
// A 401 on the re-issued request is returned as-is.
type Transport struct {
	// Base performs the actual requests; http.DefaultTransport when nil.
	Base      http.RoundTripper
	Authority ports.Authority
	Logger    *slog.Logger
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Authority == nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, errors.New("apiclient: transport has no authority")
	}
	ctx := req.Context()

	usedToken := t.Authority.AccessToken()
	resp, err := t.base().RoundTrip(authorize(req.Clone(ctx), usedToken))
	if err != nil {
		return nil, err
	}

	action := domainauth.DecideRecovery(domainauth.RecoveryInput{
		StatusCode: resp.StatusCode,
		Retried:    isRetried(ctx),
		Replayable: replayable(req),
	})
	if action != domainauth.RecoveryRefreshAndRetry {
		if action == domainauth.RecoveryFail {
			t.logger().DebugContext(ctx, "401 not recoverable", "method", req.Method, "path", req.URL.Path)
		}
		return resp, nil
	}

	newToken, err := t.Authority.RefreshIfStale(ctx, usedToken)
	if err != nil {
		t.logger().InfoContext(ctx, "refresh after 401 failed, ending session",
			"path", req.URL.Path,
			"error", err,
			"error_type", apperrors.Classify(err))
		if !t.Authority.EndSession(context.WithoutCancel(ctx), usedToken) {
			t.logger().InfoContext(ctx, "session changed during refresh, keeping it", "path", req.URL.Path)
		}
		return resp, nil
	}

	retry, err := rewind(withRetried(ctx), req)
	if err != nil {
		t.logger().WarnContext(ctx, "request body could not be replayed", "error", err)
		return resp, nil
	}
	discard(resp)

	return t.base().RoundTrip(authorize(retry, newToken))
}

// authorize sets or clears the bearer header on a request the transport owns.
func authorize(req *http.Request, token string) *http.Request {
	if token == "" {
		req.Header.Del("Authorization")
		return req
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	return req
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	retry := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("get body: %w", err)
	}
	retry.Body = body
	return retry, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
