package client

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind classifies a response from the API.
type Kind int

const (
	KindSuccess Kind = iota
	// KindAuthExpired means the session is no longer usable and the user
	// must log in again.
	KindAuthExpired
	// KindValidation is any other rejection that carries a server message.
	KindValidation
	// KindUnknown is a rejection whose body could not be understood.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// authExpiredKind is the "error" value the server sends when a bearer token
// is missing, invalid, expired, or names a deleted user.
const authExpiredKind = "auth_expired"

// identityMarkers are message fragments that older servers put in 401 and
// 500 bodies when the token's user cannot be resolved.
var identityMarkers = []string{"User not found", "identifier"}

// Response is a fully read and classified HTTP response.
type Response struct {
	Status int
	Kind   Kind

	// Body is the raw response body.
	Body []byte
	// JSON reports whether Body parsed as JSON.
	JSON bool

	// Message and Error are the "message" and "error" fields of a JSON
	// object body. For a body that is not JSON, Message is the raw text.
	Message string
	Error   string
}

// OK reports whether the response was a 2xx.
func (r Response) OK() bool {
	return r.Kind == KindSuccess
}

// Err returns nil for a successful response and an *APIError otherwise.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	return &APIError{Kind: r.Kind, Status: r.Status, Message: r.Message}
}

// SafeParse decodes and classifies a response body. It never fails: a body
// that is not JSON comes back as Response{Message: <text>}.
func SafeParse(status int, body []byte) Response {
	res := Response{Status: status, Body: body}

	trimmed := bytes.TrimSpace(body)
	var v any
	if len(trimmed) > 0 && json.Unmarshal(trimmed, &v) == nil {
		res.JSON = true
		if obj, ok := v.(map[string]any); ok {
			res.Message, _ = obj["message"].(string)
			res.Error, _ = obj["error"].(string)
		}
	} else {
		res.Message = string(body)
	}

	res.Kind = classify(res)
	return res
}

func classify(res Response) Kind {
	if res.Status >= 200 && res.Status < 300 {
		return KindSuccess
	}
	if res.Error == authExpiredKind {
		return KindAuthExpired
	}
	if res.JSON && (res.Status == 401 || res.Status == 500) {
		for _, marker := range identityMarkers {
			if strings.Contains(res.Message, marker) {
				return KindAuthExpired
			}
		}
	}
	return rejection(res)
}

// rejection classifies a non-2xx response that does not end the session.
func rejection(res Response) Kind {
	if res.JSON && res.Message != "" {
		return KindValidation
	}
	return KindUnknown
}
