package provider

import (
	"strings"
	"testing"
)

func TestSSEScannerParsesDataFrames(t *testing.T) {
	raw := "event: response.output_text.delta\n" +
		"data: {\"type\":\"response.output_text.delta\",\"delta\":\"hi\"}\n\n" +
		": keepalive\n\n" +
		"data: {\"type\":\"response.completed\"}\n\n"

	scanner := newSSEScanner(strings.NewReader(raw))

	first, ok := scanner.Next()
	if !ok || !strings.Contains(first, "output_text.delta") {
		t.Fatalf("expected first frame, got %q ok=%v", first, ok)
	}

	second, ok := scanner.Next()
	if !ok || !strings.Contains(second, "response.completed") {
		t.Fatalf("expected second frame, got %q ok=%v", second, ok)
	}

	if _, ok := scanner.Next(); ok {
		t.Fatal("expected no further frames")
	}
}

func TestFailoverReasonIsRetryable(t *testing.T) {
	cases := map[FailoverReason]bool{
		FailoverRateLimit:   true,
		FailoverTimeout:     true,
		FailoverServerError: true,
		FailoverAuth:        false,
		FailoverInvalid:     false,
	}
	for reason, want := range cases {
		if got := reason.IsRetryable(); got != want {
			t.Errorf("%s.IsRetryable() = %v, want %v", reason, got, want)
		}
	}
}
