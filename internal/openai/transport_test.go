package openai

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: defaultEndpoint},
		{name: "base", in: "https://api.openai.com", want: "https://api.openai.com/v1/responses"},
		{name: "v1", in: "https://api.openai.com/v1", want: "https://api.openai.com/v1/responses"},
		{name: "responses", in: "https://proxy.example/v1/responses", want: "https://proxy.example/v1/responses"},
		{name: "custom-v1-path", in: "https://proxy.example/v1/custom", want: "https://proxy.example/v1/custom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeEndpoint(tc.in); got != tc.want {
				t.Fatalf("normalizeEndpoint(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsRetriableError(t *testing.T) {
	if isRetriableError(context.Canceled) {
		t.Fatal("context canceled should not be retriable")
	}
	if isRetriableError(context.DeadlineExceeded) {
		t.Fatal("context deadline should not be retriable")
	}
	if !isRetriableError(&httpStatusError{statusCode: 500}) {
		t.Fatal("5xx should be retriable")
	}
	if !isRetriableError(&httpStatusError{statusCode: 429}) {
		t.Fatal("429 should be retriable")
	}
	if isRetriableError(&httpStatusError{statusCode: 400}) {
		t.Fatal("4xx should not be retriable")
	}
	if !isRetriableError(fmt.Errorf("openai request failed: %w", &net.DNSError{IsTemporary: true})) {
		t.Fatal("network errors should be retriable")
	}
}

func TestBackoffDurationCaps(t *testing.T) {
	if got := backoffDuration(0); got != 500*time.Millisecond {
		t.Fatalf("backoff(0) = %v, want 500ms", got)
	}
	if got := backoffDuration(1); got != time.Second {
		t.Fatalf("backoff(1) = %v, want 1s", got)
	}
	if got := backoffDuration(10); got != 4*time.Second {
		t.Fatalf("backoff(10) = %v, want the 4s cap", got)
	}
}

func TestMarshalRequestOmitsMaxOutputTokensWhenZero(t *testing.T) {
	payload, err := marshalRequest(responseRequest{
		Model: "gpt-5.2",
		Input: []inputMsg{makeMessage("user", "hello")},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(payload), "\"max_output_tokens\"") {
		t.Fatalf("did not expect max_output_tokens in payload, got %s", payload)
	}
}

func TestDecodeAPIErrorFallsBackToRawBody(t *testing.T) {
	if got := decodeAPIError([]byte(`{"error":{"message":"quota exceeded"}}`)); got != "quota exceeded" {
		t.Fatalf("decoded %q, want quota exceeded", got)
	}
	if got := decodeAPIError([]byte("plain failure text")); got != "plain failure text" {
		t.Fatalf("decoded %q, want raw body", got)
	}
	if got := decodeAPIError(nil); got != "empty error response" {
		t.Fatalf("decoded %q, want empty error marker", got)
	}
}
