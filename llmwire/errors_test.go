package llmwire

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "*llmwire.InvalidRequestError", false},
		{401, "*llmwire.AuthenticationError", false},
		{403, "*llmwire.AccessDeniedError", false},
		{404, "*llmwire.NotFoundError", false},
		{408, "*llmwire.RequestTimeoutError", true},
		{413, "*llmwire.ContextLengthError", false},
		{422, "*llmwire.InvalidRequestError", false},
		{429, "*llmwire.RateLimitError", true},
		{500, "*llmwire.ServerError", true},
		{503, "*llmwire.ServerError", true},
		{599, "*llmwire.ProviderError", true},
	}

	for _, tc := range cases {
		err := ErrorFromStatusCode(tc.status, "boom", "openai", nil)
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := typeName(err); got != tc.wantType {
			t.Errorf("status %d: expected %s, got %s", tc.status, tc.wantType, got)
		}
		if got := IsRetryable(err); got != tc.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tc.status, tc.retryable, got)
		}
	}
}

func typeName(err error) string {
	switch err.(type) {
	case *InvalidRequestError:
		return "*llmwire.InvalidRequestError"
	case *AuthenticationError:
		return "*llmwire.AuthenticationError"
	case *AccessDeniedError:
		return "*llmwire.AccessDeniedError"
	case *NotFoundError:
		return "*llmwire.NotFoundError"
	case *RequestTimeoutError:
		return "*llmwire.RequestTimeoutError"
	case *ContextLengthError:
		return "*llmwire.ContextLengthError"
	case *RateLimitError:
		return "*llmwire.RateLimitError"
	case *ServerError:
		return "*llmwire.ServerError"
	case *ProviderError:
		return "*llmwire.ProviderError"
	default:
		return "unknown"
	}
}

func TestWireErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := &NetworkError{WireError: WireError{Message: "stream interrupted", Cause: cause}}

	if !errors.Is(err, cause) {
		t.Error("expected cause to unwrap")
	}
	if err.Error() != "stream interrupted: socket closed" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestIsRetryableNil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestIsRetryableUnknownDefaultsTrue(t *testing.T) {
	if !IsRetryable(errors.New("mystery")) {
		t.Error("unknown errors default to retryable")
	}
}
