package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew_DefaultStatus(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"bin state is a bad request", CodeInvalidBinState, http.StatusBadRequest},
		{"overflow is unprocessable", CodeMathOverflow, http.StatusUnprocessableEntity},
		{"market not found", CodeMarketNotFound, http.StatusNotFound},
		{"tick grid violation", CodeMinTickNotMultiple, http.StatusBadRequest},
		{"rate limit", CodeRateLimitExceeded, http.StatusTooManyRequests},
		{"feed down", CodeFeedUnavailable, http.StatusServiceUnavailable},
		{"websocket", CodeWebSocketConnectionError, http.StatusServiceUnavailable},
		{"journal", CodeJournalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.code).StatusCode; got != tt.want {
				t.Errorf("StatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := New(CodeCannotSellMoreThanBin)
	err := fmt.Errorf("quote: %w", New(CodeCannotSellMoreThanBin, WithContext("x=600 q=500")))

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match AppErrors with the same code")
	}
	if errors.Is(err, New(CodeInvalidBinState)) {
		t.Error("errors.Is should not match a different code")
	}
	if got := GetCode(err); got != CodeCannotSellMoreThanBin {
		t.Errorf("GetCode() = %s, want %s", got, CodeCannotSellMoreThanBin)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "ctx") != nil {
		t.Fatal("Wrap(nil) should be nil")
	}

	plain := errors.New("boom")
	wrapped := Wrap(plain, CodeJournalError, "record quote")
	if wrapped.Code != CodeJournalError {
		t.Errorf("Code = %s, want %s", wrapped.Code, CodeJournalError)
	}
	if !errors.Is(wrapped, plain) {
		t.Error("wrapped error should unwrap to the cause")
	}

	existing := New(CodeMathOverflow)
	if got := Wrap(existing, CodeInternalError, "multi buy"); got != existing {
		t.Error("Wrap should return existing AppErrors unchanged")
	}
	if existing.Context != "multi buy" {
		t.Errorf("Context = %q, want %q", existing.Context, "multi buy")
	}
}

func TestToResponse(t *testing.T) {
	err := New(CodeBinIndexOutOfRange, WithContextf("tick %d", 250)).WithTraceID("abc")
	resp := err.ToResponse()

	body, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("response missing error object: %v", resp)
	}
	if body["code"] != CodeBinIndexOutOfRange {
		t.Errorf("code = %v, want %v", body["code"], CodeBinIndexOutOfRange)
	}
	if body["context"] != "tick 250" {
		t.Errorf("context = %v, want %q", body["context"], "tick 250")
	}
	if body["traceId"] != "abc" {
		t.Errorf("traceId = %v, want abc", body["traceId"])
	}
}
