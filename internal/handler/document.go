package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"document-proxy-go/internal/metrics"
	"document-proxy-go/internal/model"
	"document-proxy-go/internal/service"
)

// deleteFailedDetail is the only failure detail ever shown to callers.
const deleteFailedDetail = "Failed to delete document"

// DocumentHandler relays document requests to the backend.
type DocumentHandler struct {
	service *service.DocumentService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDocumentHandler creates a DocumentHandler.
// The metrics parameter is optional; pass nil to skip failure counting.
func NewDocumentHandler(svc *service.DocumentService, logger *slog.Logger, m *metrics.Metrics) *DocumentHandler {
	return &DocumentHandler{
		service: svc,
		logger:  logger.With("component", "document_handler"),
		metrics: m,
	}
}

// Delete handles DELETE /api/documents/:docId. The backend status and JSON
// body are relayed as-is; any forwarding failure becomes a fixed 500.
func (h *DocumentHandler) Delete(c echo.Context) error {
	req := c.Request()

	dr := &model.DeleteRequest{
		Ctx:           req.Context(),
		DocID:         c.Param("docId"),
		Authorization: req.Header.Get(echo.HeaderAuthorization),
		RequestID:     c.Response().Header().Get(echo.HeaderXRequestID),
	}

	resp, err := h.service.Delete(dr)
	if err != nil {
		return h.fail(c, dr, err)
	}

	return c.JSONBlob(resp.StatusCode, resp.Body)
}

func (h *DocumentHandler) fail(c echo.Context, dr *model.DeleteRequest, err error) error {
	h.logger.Error("document delete proxy error",
		"err", err,
		"doc_id", dr.DocID,
		"request_id", dr.RequestID,
	)
	if h.metrics != nil {
		h.metrics.ForwardFailures.Inc()
	}
	return c.JSON(http.StatusInternalServerError, model.ErrorPayload{Detail: deleteFailedDetail})
}
