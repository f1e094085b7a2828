package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotAuthorized,
				Message: "superuser required",
			},
			want: "superuser required",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeRefreshFailed,
				Message: "refresh failed",
				Cause:   errors.New("underlying error"),
			},
			want: "refresh failed: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode ErrorCode
		wantMsg  string
	}{
		{"invalid credentials", InvalidCredentials("Incorrect email or password"), ErrCodeInvalidCredentials, "Incorrect email or password"},
		{"not authorized", NotAuthorized("superuser required"), ErrCodeNotAuthorized, "superuser required"},
		{"not authorized formatted", NotAuthorizedf("%s is not a superuser", "a@x.com"), ErrCodeNotAuthorized, "a@x.com is not a superuser"},
		{"malformed token", MalformedToken("token has no payload"), ErrCodeMalformedToken, "token has no payload"},
		{"refresh failed", RefreshFailed("session expired"), ErrCodeRefreshFailed, "session expired"},
		{"network", Network("unreachable"), ErrCodeNetwork, "unreachable"},
		{"validation", Validation("invalid input"), ErrCodeValidation, "invalid input"},
		{"validation formatted", Validationf("%s is required", "secret"), ErrCodeValidation, "secret is required"},
		{"not found", NotFound("course not found"), ErrCodeNotFound, "course not found"},
		{"not found formatted", NotFoundf("course %s not found", "42"), ErrCodeNotFound, "course 42 not found"},
		{"internal", Internal("internal server error"), ErrCodeInternal, "internal server error"},
		{"internal formatted", Internalf("status %d", 500), ErrCodeInternal, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("identifier", "identifier is required")
	if err.Code != ErrCodeValidation {
		t.Errorf("ValidationField().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "identifier" {
		t.Errorf("ValidationField().Field = %v, want %v", err.Field, "identifier")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeRefreshFailed, "wrapped error")

	if err.Code != ErrCodeRefreshFailed {
		t.Errorf("Wrap().Code = %v, want %v", err.Code, ErrCodeRefreshFailed)
	}
	if err.Message != "wrapped error" {
		t.Errorf("Wrap().Message = %v, want %v", err.Message, "wrapped error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Wrap() should unwrap to %v", cause)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "wrapped error"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "wrapped %s", "error"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestIsHelpers(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NotAuthorized("superuser required"))

	tests := []struct {
		name string
		is   func(error) bool
		err  error
		want bool
	}{
		{"invalid credentials", IsInvalidCredentials, InvalidCredentials("x"), true},
		{"not authorized", IsNotAuthorized, NotAuthorized("x"), true},
		{"not authorized wrapped", IsNotAuthorized, wrapped, true},
		{"malformed token", IsMalformedToken, MalformedToken("x"), true},
		{"refresh failed", IsRefreshFailed, RefreshFailed("x"), true},
		{"network", IsNetwork, Network("x"), true},
		{"validation", IsValidation, Validation("x"), true},
		{"not found", IsNotFound, NotFound("x"), true},
		{"internal", IsInternal, Internal("x"), true},
		{"timeout", IsTimeout, &AppError{Code: ErrCodeTimeout}, true},
		{"canceled", IsCanceled, &AppError{Code: ErrCodeCanceled}, true},
		{"other code", IsNotAuthorized, InvalidCredentials("x"), false},
		{"standard error", IsNetwork, errors.New("standard error"), false},
		{"nil error", IsRefreshFailed, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.is(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "app error",
			err:  MalformedToken("bad token"),
			want: ErrCodeMalformedToken,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error with cause", Wrap(errors.New("dial tcp"), ErrCodeNetwork, "unreachable"), "unreachable"},
		{"standard error", errors.New("standard error"), "standard error"},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetMessage(tt.err); got != tt.want {
				t.Errorf("GetMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetField(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation field error",
			err:  ValidationField("secret", "required"),
			want: "secret",
		},
		{
			name: "error without field",
			err:  NotFound("not found"),
			want: "",
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: "",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetField(tt.err); got != tt.want {
				t.Errorf("GetField() = %v, want %v", got, tt.want)
			}
		})
	}
}
