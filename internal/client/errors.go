package client

import "errors"

var (
	// ErrAuthExpired matches an APIError of KindAuthExpired.
	ErrAuthExpired = errors.New("client: authentication expired")
	// ErrRejected matches an APIError of KindValidation.
	ErrRejected = errors.New("client: request rejected")
	// ErrUnknown matches an APIError of KindUnknown.
	ErrUnknown = errors.New("client: unexpected response")
)

// APIError is a non-2xx response. Message is the server's text, suitable
// for showing to the user verbatim; it may be empty.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "client: " + e.Kind.String() + " response"
}

// Is lets errors.Is match an APIError against the sentinel of its kind.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.Kind == KindAuthExpired
	case ErrRejected:
		return e.Kind == KindValidation
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// MessageOr returns the server message carried by err, or fallback when err
// is not an APIError or has no message.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
