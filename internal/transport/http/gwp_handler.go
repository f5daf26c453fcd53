package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "lobstats/internal/errors"
	"lobstats/internal/infrastructure"
	"lobstats/internal/lobstats"
	api "lobstats/pkg/contracts/api/v1"
)

// GWPHandler serves GWP average queries
type GWPHandler struct {
	service      StatsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewGWPHandler creates a new GWP handler
func NewGWPHandler(service StatsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *GWPHandler {
	return &GWPHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "gwp_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the GWP routes
func (h *GWPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/avg", h.GetAverages)
	r.Get("/stats", h.GetStats)

	return r
}

// GetAverages handles POST /server/api/gwp/avg
func (h *GWPHandler) GetAverages(w http.ResponseWriter, r *http.Request) {
	var req api.GWPAverageRequest
	if err := render.Bind(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	averages, err := h.service.GetAverages(r.Context(), req.Country, req.Lob)
	if err != nil {
		h.errorHandler.HandleError(w, r, MapDomainError(err))
		return
	}

	response := make(api.GWPAverageResponse, len(averages))
	for lob, avg := range averages {
		response[lob] = json.Number(avg.String())
	}

	render.JSON(w, r, response)
}

// GetStats handles GET /server/api/gwp/stats
func (h *GWPHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Stats(r.Context()))
}

// MapDomainError converts lobstats errors to API errors. Unknown errors are
// returned unchanged and end up as 500s.
func MapDomainError(err error) error {
	var (
		validationErr *lobstats.ValidationError
		parseErr      *lobstats.ParseError
		missingErr    *lobstats.MissingSourceError
		rangeErr      *lobstats.InvalidRangeError
	)

	switch {
	case errors.As(err, &validationErr):
		code := apierrors.CodeInvalidRequest
		switch {
		case errors.Is(err, lobstats.ErrInvalidCountryCode):
			code = apierrors.CodeInvalidCountryCode
		case errors.Is(err, lobstats.ErrEmptyLobList):
			code = apierrors.CodeEmptyLobList
		case errors.Is(err, lobstats.ErrDuplicateLob):
			code = apierrors.CodeDuplicateLob
		}
		return apierrors.ValidationFailed(code, validationErr.Field, validationErr.Value, validationErr.Err.Error())

	case errors.As(err, &parseErr):
		return apierrors.NewWithDetails(
			http.StatusInternalServerError,
			apierrors.CodeDatasetParseFailed,
			"Dataset could not be parsed",
			map[string]interface{}{
				"row":    parseErr.Row,
				"column": parseErr.Column,
			},
		)

	case errors.As(err, &missingErr):
		return apierrors.NewWithDetails(
			http.StatusServiceUnavailable,
			apierrors.CodeDatasetUnavailable,
			"Dataset is unavailable",
			map[string]interface{}{"source": missingErr.Source},
		)

	case errors.As(err, &rangeErr):
		return apierrors.NewWithDetails(
			http.StatusInternalServerError,
			apierrors.CodeInvalidYearRange,
			"Configured year range is invalid",
			map[string]interface{}{
				"year_from": rangeErr.YearFrom,
				"year_to":   rangeErr.YearTo,
			},
		)
	}

	return err
}
