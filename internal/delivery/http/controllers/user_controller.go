package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// UpdatePreferencesRequest is the request body for PATCH /users/me. All fields
// are optional; absent fields keep their current value.
type UpdatePreferencesRequest struct {
	MinAge       *int      `json:"min_age_preference"`
	MaxAge       *int      `json:"max_age_preference"`
	Genders      *[]string `json:"gender_preferences"`
	MinGroupSize *int      `json:"min_group_size"`
	MaxGroupSize *int      `json:"max_group_size"`
}

// Validate implements Validator.
func (u UpdatePreferencesRequest) Validate() []string {
	var errs []string
	if u.MinAge != nil && *u.MinAge < 0 {
		errs = append(errs, "min_age_preference cannot be negative")
	}
	if u.MaxAge != nil && *u.MaxAge < 0 {
		errs = append(errs, "max_age_preference cannot be negative")
	}
	if u.MinGroupSize != nil && *u.MinGroupSize < 2 {
		errs = append(errs, "min_group_size must be at least 2")
	}
	if u.MaxGroupSize != nil && *u.MaxGroupSize < 2 {
		errs = append(errs, "max_group_size must be at least 2")
	}
	return errs
}

// AvailabilityToggleResponse is the response body for PATCH /users/me/availability
type AvailabilityToggleResponse struct {
	IsAvailable bool `json:"is_available"`
}

// InterestListResponse is the response body for GET /interests
type InterestListResponse struct {
	Interests  []*domain.Interest     `json:"interests"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// GetMeSuccessResponse is the success response envelope for GET /users/me (200).
type GetMeSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UpdatePreferencesSuccessResponse is the success response envelope for PATCH /users/me (200).
type UpdatePreferencesSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AvailabilityToggleSuccessResponse is the success response envelope for PATCH /users/me/availability (200).
type AvailabilityToggleSuccessResponse struct {
	Data  AvailabilityToggleResponse `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// InterestListSuccessResponse is the success response envelope for GET /interests (200).
type InterestListSuccessResponse struct {
	Data  InterestListResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// UserController handles profile, preference, and taxonomy endpoints.
type UserController struct {
	Logger   *slog.Logger
	Service  domain.UserService
	Taxonomy domain.InterestTaxonomyRepository
}

// NewUserController creates a UserController with the given logger, service,
// and interest taxonomy.
func NewUserController(logger *slog.Logger, svc domain.UserService, taxonomy domain.InterestTaxonomyRepository) *UserController {
	return &UserController{
		Logger:   logger,
		Service:  svc,
		Taxonomy: taxonomy,
	}
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile with interests and match preferences. Requires Bearer token.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GetMeSuccessResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdatePreferences godoc
// @Summary Update match preferences
// @Description Update the authenticated user's match preferences. Absent fields are unchanged; send an empty gender_preferences array to accept any gender. Requires Bearer token.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdatePreferencesRequest true "Preference fields to update (all optional)"
// @Success 200 {object} controllers.UpdatePreferencesSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [patch]
func (c *UserController) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdatePreferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}

	prefs := user.Preferences
	if req.MinAge != nil {
		prefs.MinAge = req.MinAge
	}
	if req.MaxAge != nil {
		prefs.MaxAge = req.MaxAge
	}
	if req.Genders != nil {
		prefs.Genders = *req.Genders
	}
	if req.MinGroupSize != nil {
		prefs.MinGroupSize = *req.MinGroupSize
	}
	if req.MaxGroupSize != nil {
		prefs.MaxGroupSize = *req.MaxGroupSize
	}

	updated, err := c.Service.UpdatePreferences(r.Context(), userID, prefs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, updated)
}

// ToggleAvailability godoc
// @Summary Toggle availability
// @Description Flip the authenticated user's global visibility flag. While unavailable, the user's slots are hidden from discovery. Requires Bearer token.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AvailabilityToggleSuccessResponse "data contains the new is_available value"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/availability [patch]
func (c *UserController) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	isAvailable, err := c.Service.ToggleAvailability(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AvailabilityToggleResponse{IsAvailable: isAvailable})
}

// ListInterests godoc
// @Summary List the interest taxonomy
// @Description Returns the fixed interest taxonomy, paginated and ordered by category then name.
// @Tags interests
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.InterestListSuccessResponse "data contains interests and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /interests [get]
func (c *UserController) ListInterests(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	interests, total, err := c.Taxonomy.List(r.Context(), params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, InterestListResponse{
		Interests:  interests,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
