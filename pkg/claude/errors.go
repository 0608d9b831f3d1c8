package claude

import "fmt"

// GatewayErrorKind classifies failures of the single outbound provider call.
// No kind is retried inside the core; retry policy belongs to the transport
// wrapping a fresh request.
type GatewayErrorKind string

const (
	// ErrKindUnauthorized means the provider rejected our credential.
	ErrKindUnauthorized GatewayErrorKind = "unauthorized"
	// ErrKindProviderUnavailable covers network failures and non-2xx
	// responses that are not credential or request-shape problems.
	ErrKindProviderUnavailable GatewayErrorKind = "provider_unavailable"
	// ErrKindInvalidRequest means the request payload was malformed, which
	// indicates a bug in prompt or tool declaration building.
	ErrKindInvalidRequest GatewayErrorKind = "invalid_request"
)

type GatewayError struct {
	Kind       GatewayErrorKind
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("claude gateway error (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("claude gateway error (%s): %s", e.Kind, e.Message)
}

func newGatewayError(statusCode int, message string) *GatewayError {
	kind := ErrKindProviderUnavailable
	switch statusCode {
	case 400, 422:
		kind = ErrKindInvalidRequest
	case 401, 403:
		kind = ErrKindUnauthorized
	}
	return &GatewayError{Kind: kind, StatusCode: statusCode, Message: message}
}
