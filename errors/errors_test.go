package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRemoteError_New_RetryableDetection(t *testing.T) {
	err := New(ErrCodeServer, "boom")
	if !err.Retryable {
		t.Error("SERVER_ERROR should be retryable")
	}

	err = New(ErrCodeValidation, "bad input")
	if err.Retryable {
		t.Error("VALIDATION_ERROR should not be retryable")
	}
}

func TestRemoteError_RateLimited_CarriesHint(t *testing.T) {
	err := RateLimited(5 * time.Second)
	if err.Code != ErrCodeRateLimited {
		t.Errorf("expected RATE_LIMITED, got %s", err.Code)
	}
	if err.StatusCode != 429 {
		t.Errorf("expected 429, got %d", err.StatusCode)
	}
	if !err.Retryable {
		t.Error("rate limited should be retryable")
	}

	hint, ok := RetryAfterHint(err)
	if !ok {
		t.Fatal("expected a retry-after hint")
	}
	if hint != 5*time.Second {
		t.Errorf("expected 5s hint, got %v", hint)
	}
}

func TestRemoteError_RateLimited_NoHint(t *testing.T) {
	err := RateLimited(0)
	if _, ok := RetryAfterHint(err); ok {
		t.Error("expected no retry-after hint")
	}
}

func TestRemoteError_RetryAfterHint_WrappedChain(t *testing.T) {
	inner := RateLimited(2 * time.Second)
	wrapped := fmt.Errorf("calling api: %w", inner)

	hint, ok := RetryAfterHint(wrapped)
	if !ok || hint != 2*time.Second {
		t.Errorf("expected 2s hint through wrap, got %v (ok=%v)", hint, ok)
	}
}

func TestRemoteError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NetworkError(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  ErrorCode
		retryable bool
	}{
		{500, ErrCodeServer, true},
		{503, ErrCodeServer, true},
		{429, ErrCodeRateLimited, true},
		{400, ErrCodeValidation, false},
		{422, ErrCodeValidation, false},
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
	}

	for _, tt := range tests {
		err := FromStatusCode(tt.status, 0)
		if err == nil {
			t.Fatalf("status %d: expected an error", tt.status)
		}
		if err.Code != tt.wantCode {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.wantCode, err.Code)
		}
		if err.Retryable != tt.retryable {
			t.Errorf("status %d: expected retryable=%v", tt.status, tt.retryable)
		}
	}
}

func TestFromStatusCode_SuccessReturnsNil(t *testing.T) {
	if err := FromStatusCode(200, 0); err != nil {
		t.Errorf("expected nil for 200, got %v", err)
	}
	if err := FromStatusCode(204, 0); err != nil {
		t.Errorf("expected nil for 204, got %v", err)
	}
}

func TestIsRetryable_UnclassifiedDefaultsTrue(t *testing.T) {
	if !IsRetryable(stderrors.New("plain error")) {
		t.Error("unclassified errors should default to retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil is never retryable")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(Validation("missing field")) {
		t.Error("expected validation error detection")
	}
	if IsValidation(ServerError(500)) {
		t.Error("server error is not a validation error")
	}
}

func TestRemoteError_ErrorString(t *testing.T) {
	err := ServerError(502)
	msg := err.Error()
	if msg != "SERVER_ERROR (HTTP 502): server returned HTTP 502" {
		t.Errorf("unexpected error string: %q", msg)
	}
}

func TestRemoteError_WithDetail(t *testing.T) {
	err := Timeout("fetch").WithDetail("dependency", "github")
	if err.Details["dependency"] != "github" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}
