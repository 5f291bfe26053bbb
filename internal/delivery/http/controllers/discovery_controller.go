package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// LocationListSuccessResponse is the success response envelope for GET /discover/locations (200).
type LocationListSuccessResponse struct {
	Data  []*domain.LocationWithPeople `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// PeopleListSuccessResponse is the success response envelope for GET /discover/locations/{slotID}/people (200).
type PeopleListSuccessResponse struct {
	Data  []*domain.PersonAtLocation `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// DiscoveryController handles the "where is everyone" and "who's here" views.
type DiscoveryController struct {
	Logger  *slog.Logger
	Service domain.DiscoveryService
}

// NewDiscoveryController creates a DiscoveryController with the given logger and service.
func NewDiscoveryController(logger *slog.Logger, svc domain.DiscoveryService) *DiscoveryController {
	return &DiscoveryController{
		Logger:  logger,
		Service: svc,
	}
}

// Locations godoc
// @Summary List locations with people
// @Description Returns locations where at least one visible person has an active slot, with a per-location people count. The viewer's own slots are excluded.
// @Tags discover
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.LocationListSuccessResponse "data contains locations with people counts"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/locations [get]
func (c *DiscoveryController) Locations(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	locations, err := c.Service.LocationsWithPeople(r.Context(), viewerID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, locations)
}

// People godoc
// @Summary List people at a location
// @Description Returns everyone visible at the slot's location, ranked by mutual preference fit, then time overlap and shared interests. Each entry carries shared and other interests plus the overlapping windows.
// @Tags discover
// @Produce json
// @Security BearerAuth
// @Param slotID path int true "Anchor slot ID"
// @Success 200 {object} controllers.PeopleListSuccessResponse "data contains the ranked people"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/locations/{slotID}/people [get]
func (c *DiscoveryController) People(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slotID, ok := slotIDFromPath(w, r)
	if !ok {
		return
	}
	people, err := c.Service.PeopleAtLocation(r.Context(), viewerID, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, people)
}
