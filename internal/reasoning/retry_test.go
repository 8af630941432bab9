package reasoning

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		MaxDelay:    5 * time.Millisecond,
		Jitter:      time.Millisecond,
	}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), "test", func() error {
		attempts++
		if attempts < 3 {
			return &ServiceError{StatusCode: 429, Message: "rate limit exceeded"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryPolicy_ExhaustsRetryableErrors(t *testing.T) {
	attempts := 0
	wantErr := &ServiceError{StatusCode: 503, Message: "service unavailable"}
	err := fastPolicy().Do(context.Background(), "test", func() error {
		attempts++
		return wantErr
	})

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != 503 {
		t.Errorf("expected final 503 error, got %v", err)
	}
}

func TestRetryPolicy_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	err := fastPolicy().Do(context.Background(), "test", func() error {
		attempts++
		return &ServiceError{StatusCode: 401, Message: "invalid API key"}
	})

	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for auth error, got %d", attempts)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRetryPolicy_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}
	err := policy.Do(ctx, "test", func() error {
		return &ServiceError{StatusCode: 500, Message: "boom"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled while backing off, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&ServiceError{StatusCode: 429, Message: "slow down"}, true},
		{&ServiceError{StatusCode: 500, Message: "internal"}, true},
		{&ServiceError{StatusCode: 503, Message: "unavailable"}, true},
		{&ServiceError{StatusCode: 400, Message: "bad request"}, false},
		{&ServiceError{StatusCode: 401, Message: "unauthorized"}, false},
		{context.DeadlineExceeded, true},
		{errors.New("rate limit exceeded (429)"), true},
		{errors.New("request timeout waiting for headers"), true},
		{errors.New("invalid schema"), false},
		{fmt.Errorf("wrapped: %w", &ServiceError{StatusCode: 502, Message: "bad gateway"}), true},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestParseJSON_StripsCodeFences(t *testing.T) {
	var out struct {
		Passed bool `json:"passed"`
	}

	cases := []string{
		`{"passed": true}`,
		"```json\n{\"passed\": true}\n```",
		"```\n{\"passed\": true}\n```",
		"  {\"passed\": true}  ",
	}
	for _, c := range cases {
		out.Passed = false
		if err := ParseJSON(c, &out); err != nil {
			t.Errorf("ParseJSON(%q) failed: %v", c, err)
			continue
		}
		if !out.Passed {
			t.Errorf("ParseJSON(%q) did not decode payload", c)
		}
	}

	if err := ParseJSON("not json at all", &out); err == nil {
		t.Error("expected parse error for non-JSON payload")
	}
}
