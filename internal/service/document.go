// Package service implements the document delete forwarding logic.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"document-proxy-go/internal/client"
	"document-proxy-go/internal/config"
	"document-proxy-go/internal/model"
)

// ErrForwardingFailed marks every failure to obtain a usable backend answer:
// transport errors, timeouts, unreadable or non-JSON bodies. The underlying
// cause stays in the error chain for logging.
var ErrForwardingFailed = errors.New("document forwarding failed")

const (
	userAgent = "document-proxy-go/1.0"

	// headerSkipBrowserWarning asks ngrok-style tunnels not to serve their
	// interstitial page. Backends that do not know it ignore it.
	headerSkipBrowserWarning = "ngrok-skip-browser-warning"
)

// DocumentService forwards document operations to the backend.
type DocumentService struct {
	client  *client.BackendClient
	cfg     *config.Config
	logger  *slog.Logger
	baseURL string
}

// NewDocumentService creates a DocumentService for the resolved backend URL.
func NewDocumentService(c *client.BackendClient, cfg *config.Config, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "document_service"),
		baseURL: cfg.Upstream.BaseURL,
	}
}

// Delete issues DELETE {base}/documents/{id} and returns the backend status and
// JSON body untouched. Backend error statuses are not errors here; only a
// missing or unparseable answer is, and it always wraps ErrForwardingFailed.
func (s *DocumentService) Delete(dr *model.DeleteRequest) (*model.UpstreamResponse, error) {
	target := s.documentURL(dr.DocID)

	s.logger.Debug("forwarding delete",
		"doc_id", dr.DocID,
		"request_id", dr.RequestID,
	)

	resp, err := s.client.Send(dr.Ctx, http.MethodDelete, target, s.buildHeaders(dr))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForwardingFailed, err)
	}

	var body json.RawMessage
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: decode upstream body (status %d): %w", ErrForwardingFailed, resp.StatusCode, err)
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// documentURL joins the base URL and the document id by plain concatenation.
// The id is embedded verbatim unless upstream.escape_document_id is set.
func (s *DocumentService) documentURL(docID string) string {
	if s.cfg.Upstream.EscapeDocumentID {
		docID = url.PathEscape(docID)
	}
	return s.baseURL + "/documents/" + docID
}

func (s *DocumentService) buildHeaders(dr *model.DeleteRequest) http.Header {
	h := make(http.Header)
	// Always present, even when empty: the backend decides what an empty credential means.
	h.Set("Authorization", dr.Authorization)
	h.Set("Content-Type", "application/json")
	h.Set(headerSkipBrowserWarning, "true")
	h.Set("User-Agent", userAgent)
	if dr.RequestID != "" {
		h.Set("X-Request-Id", dr.RequestID)
	}
	return h
}
