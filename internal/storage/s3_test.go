package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/smithy-go"
)

func TestReportContentType(t *testing.T) {
	tests := []struct {
		path     string
		wantType string
		wantEnc  string
	}{
		{"reports/bench_x.json", "application/json", ""},
		{"bench_x.csv", "text/csv; charset=utf-8", ""},
		{"bench_x.pb", "application/x-protobuf", ""},
		{"bench_x.txt", "text/plain; charset=utf-8", ""},
		{"bench_x.json.sz", "application/json", "x-snappy"},
		{"bench_x.bin", "application/octet-stream", ""},
	}
	for _, tt := range tests {
		gotType, gotEnc := ReportContentType(tt.path)
		if gotType != tt.wantType || gotEnc != tt.wantEnc {
			t.Errorf("ReportContentType(%q) = (%q, %q), want (%q, %q)",
				tt.path, gotType, gotEnc, tt.wantType, tt.wantEnc)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	if got := backoffDelay(0); got != s3BaseBackoff {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := backoffDelay(2); got != 4*s3BaseBackoff {
		t.Errorf("attempt 2: got %v", got)
	}
	if got := backoffDelay(10); got != s3MaxBackoff {
		t.Errorf("attempt 10: got %v, want cap %v", got, s3MaxBackoff)
	}
	if got := backoffDelay(80); got != s3MaxBackoff {
		t.Errorf("overflowing attempt: got %v", got)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("connection reset"), true},
		{"throttled", &smithy.GenericAPIError{Code: "SlowDown"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"missing bucket", fmt.Errorf("put: %w", &smithy.GenericAPIError{Code: "NoSuchBucket"}), false},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&smithy.GenericAPIError{Code: "NotFound"}) {
		t.Error("expected NotFound API error to be not-found")
	}
	if isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Error("AccessDenied is not not-found")
	}
}

func TestWithRetry(t *testing.T) {
	s := &S3Storage{maxRetries: 2}
	ctx := context.Background()

	calls := 0
	err := s.withRetry(ctx, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("expected success on second call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = s.withRetry(ctx, func() error {
		calls++
		return &smithy.GenericAPIError{Code: "AccessDenied"}
	})
	if err == nil || calls != 1 {
		t.Errorf("expected one attempt for permanent error, got err=%v calls=%d", err, calls)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	start := time.Now()
	if err := s.withRetry(cctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled retry should return immediately")
	}
}
