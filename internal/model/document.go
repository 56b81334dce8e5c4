// Package model defines shared types for the document proxy.
package model

import (
	"context"
	"encoding/json"
)

// DeleteRequest is an inbound document delete to be forwarded to the backend.
type DeleteRequest struct {
	Ctx   context.Context
	DocID string
	// Authorization is forwarded as-is. A missing header is the empty string.
	Authorization string
	RequestID     string
}

// UpstreamResponse is the backend's answer to a forwarded request.
type UpstreamResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// ErrorPayload is the body returned when forwarding fails.
type ErrorPayload struct {
	Detail string `json:"detail"`
}
