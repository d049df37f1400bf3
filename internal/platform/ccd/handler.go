package ccd

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/openclinic/cdabuild/internal/platform/cda"
)

// Handler exposes document generation over HTTP. The engine stays free of
// I/O; this is the outer surface.
type Handler struct {
	generator *Generator
	logger    zerolog.Logger
}

// NewHandler creates a document generation handler.
func NewHandler(generator *Generator, logger zerolog.Logger) *Handler {
	return &Handler{generator: generator, logger: logger}
}

// RegisterRoutes registers the generation endpoint on the provided group.
//
//	POST /documents/ccd - Build a CCD from a patient-data payload
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/documents/ccd", h.GenerateCCD)
}

// GenerateCCD handles POST /documents/ccd. The request body is a JSON
// PatientData payload; the response is the CCD XML document.
func (h *Handler) GenerateCCD(c echo.Context) error {
	var data PatientData
	if err := c.Bind(&data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid patient data payload",
		})
	}

	indent := c.QueryParam("indent") != "false"

	xmlData, err := h.generator.GenerateXML(&data, indent)
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", data.Patient.ID()).Msg("document build failed")

		var cfgErr *cda.ConfigError
		var structErr *cda.StructuralError
		switch {
		case errors.As(err, &cfgErr):
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		case errors.As(err, &structErr):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
	}

	h.logger.Info().
		Str("patient_id", data.Patient.ID()).
		Int("bytes", len(xmlData)).
		Msg("document generated")

	return c.Blob(http.StatusOK, "application/xml", xmlData)
}
