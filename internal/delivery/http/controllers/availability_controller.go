package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// SlotRequest is the request body for POST /availability and PATCH /availability/{slotID}
type SlotRequest struct {
	LocationName string  `json:"location_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters *int    `json:"radius_meters"`
	TimeStart    string  `json:"time_start"`
	TimeEnd      string  `json:"time_end"`
	RepeatDays   []int   `json:"repeat_days"`
}

// Validate implements Validator. Range and format checks live in the domain;
// this only catches missing fields early.
func (s SlotRequest) Validate() []string {
	var errs []string
	if s.LocationName == "" {
		errs = append(errs, "location_name is required")
	}
	if s.TimeStart == "" {
		errs = append(errs, "time_start is required")
	}
	if s.TimeEnd == "" {
		errs = append(errs, "time_end is required")
	}
	if len(s.RepeatDays) == 0 {
		errs = append(errs, "repeat_days is required")
	}
	return errs
}

func (s SlotRequest) toSlot() *domain.AvailabilitySlot {
	return &domain.AvailabilitySlot{
		LocationName: s.LocationName,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		RadiusMeters: s.RadiusMeters,
		TimeStart:    s.TimeStart,
		TimeEnd:      s.TimeEnd,
		RepeatDays:   s.RepeatDays,
	}
}

// SlotSuccessResponse is the success response envelope for single-slot endpoints.
type SlotSuccessResponse struct {
	Data  *domain.AvailabilitySlot `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// SlotListSuccessResponse is the success response envelope for GET /availability (200).
type SlotListSuccessResponse struct {
	Data  []*domain.AvailabilitySlot `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// AvailabilityController handles availability slot CRUD for the
// authenticated user.
type AvailabilityController struct {
	Logger  *slog.Logger
	Service domain.AvailabilityService
}

// NewAvailabilityController creates an AvailabilityController with the given logger and service.
func NewAvailabilityController(logger *slog.Logger, svc domain.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		Logger:  logger,
		Service: svc,
	}
}

// slotIDFromPath parses the {slotID} path value; writes a 400 and returns
// false on garbage.
func slotIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("slotID"), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid slot id")
		return 0, false
	}
	return id, true
}

// Create godoc
// @Summary Create an availability slot
// @Description Post a place and weekly time window where you can be found. The slot is active immediately.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SlotRequest true "Slot data"
// @Success 201 {object} controllers.SlotSuccessResponse "data contains the created slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /availability [post]
func (c *AvailabilityController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req SlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	slot := req.toSlot()
	slot.UserID = userID
	created, err := c.Service.Create(r.Context(), slot)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// List godoc
// @Summary List my availability slots
// @Description Returns all of the authenticated user's slots, active or not.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SlotListSuccessResponse "data contains the slot list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /availability [get]
func (c *AvailabilityController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slots, err := c.Service.ListOwn(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slots)
}

// Get godoc
// @Summary Get one of my slots
// @Description Returns a single slot owned by the authenticated user.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param slotID path int true "Slot ID"
// @Success 200 {object} controllers.SlotSuccessResponse "data contains the slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /availability/{slotID} [get]
func (c *AvailabilityController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slotID, ok := slotIDFromPath(w, r)
	if !ok {
		return
	}
	slot, err := c.Service.GetOwn(r.Context(), userID, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// Update godoc
// @Summary Update one of my slots
// @Description Replace a slot's place and time window. Only the owner can update a slot.
// @Tags availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotID path int true "Slot ID"
// @Param body body SlotRequest true "New slot data"
// @Success 200 {object} controllers.SlotSuccessResponse "data contains the updated slot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /availability/{slotID} [patch]
func (c *AvailabilityController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slotID, ok := slotIDFromPath(w, r)
	if !ok {
		return
	}
	var req SlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	slot := req.toSlot()
	slot.ID = slotID
	updated, err := c.Service.Update(r.Context(), userID, slot)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete one of my slots
// @Description Remove a slot. Only the owner can delete a slot.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param slotID path int true "Slot ID"
// @Success 204 "no content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /availability/{slotID} [delete]
func (c *AvailabilityController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	slotID, ok := slotIDFromPath(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), userID, slotID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
