package birthweight

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/centile/internal/platform/artifact"
)

const plotFailed = "Plot generation failed"

// Failure reasons reported next to the error message.
const (
	ReasonNoValidData         = "no_valid_data"
	ReasonUnsupportedCategory = "unsupported_category"
	ReasonInvalidRecord       = "invalid_record"
	ReasonDeliveryFailed      = "delivery_failed"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/generate-plot", h.GeneratePlot)
}

// GeneratePlot charts the latest valid measurement. The request body is
// ignored.
func (h *Handler) GeneratePlot(c echo.Context) error {
	art, err := h.svc.Generate(c.Request().Context())
	if errors.Is(err, context.DeadlineExceeded) {
		// Left unwritten so the request timeout middleware answers 504.
		return err
	}
	if err != nil {
		status, body := errorResponse(err)
		return c.JSON(status, body)
	}

	if art.Mode == artifact.ModeUpload {
		return c.JSON(http.StatusOK, map[string]string{"image_url": art.URL})
	}
	return c.JSON(http.StatusOK, map[string]string{"image_base64": art.Base64})
}

func errorResponse(err error) (int, map[string]string) {
	var de *artifact.DeliveryError
	switch {
	case errors.Is(err, ErrNoValidData):
		return http.StatusInternalServerError, map[string]string{"error": plotFailed, "reason": ReasonNoValidData}
	case errors.Is(err, ErrUnsupportedCategory):
		return http.StatusInternalServerError, map[string]string{"error": plotFailed, "reason": ReasonUnsupportedCategory}
	case errors.Is(err, ErrInvalidRecord):
		return http.StatusInternalServerError, map[string]string{"error": err.Error(), "reason": ReasonInvalidRecord}
	case errors.As(err, &de):
		return http.StatusBadGateway, map[string]string{"error": de.Error(), "reason": ReasonDeliveryFailed}
	default:
		return http.StatusInternalServerError, map[string]string{"error": err.Error()}
	}
}
