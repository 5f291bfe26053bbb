package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// ExpressInterestRequest is the request body for POST /discover/interest
type ExpressInterestRequest struct {
	TargetID string `json:"target_id"`
	SlotID   int64  `json:"slot_id"`
}

// Validate implements Validator.
func (e ExpressInterestRequest) Validate() []string {
	var errs []string
	if e.TargetID == "" {
		errs = append(errs, "target_id is required")
	}
	if e.SlotID <= 0 {
		errs = append(errs, "slot_id is required")
	}
	return errs
}

// ProposeTimeRequest is the request body for POST /discover/matches/{matchID}/propose-time
type ProposeTimeRequest struct {
	Datetime time.Time `json:"datetime"`
}

// Validate implements Validator.
func (p ProposeTimeRequest) Validate() []string {
	var errs []string
	if p.Datetime.IsZero() {
		errs = append(errs, "datetime is required")
	}
	return errs
}

// ExpressInterestSuccessResponse is the success response envelope for POST /discover/interest (201).
type ExpressInterestSuccessResponse struct {
	Data  *domain.ExpressInterestResult `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

// ExpressionListSuccessResponse is the success response envelope for GET /discover/interests/sent (200).
type ExpressionListSuccessResponse struct {
	Data  []*domain.InterestExpression `json:"data"`
	Error *helpers.APIError            `json:"error"`
}

// MatchListSuccessResponse is the success response envelope for GET /discover/matches (200).
type MatchListSuccessResponse struct {
	Data  []*domain.MatchWithContext `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// MatchSuccessResponse is the success response envelope for propose-time and confirm (200).
type MatchSuccessResponse struct {
	Data  *domain.Match     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MatchController handles interest expressions and the match lifecycle.
type MatchController struct {
	Logger  *slog.Logger
	Service domain.MatchingService
}

// NewMatchController creates a MatchController with the given logger and service.
func NewMatchController(logger *slog.Logger, svc domain.MatchingService) *MatchController {
	return &MatchController{
		Logger:  logger,
		Service: svc,
	}
}

func matchIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("matchID"), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid match id")
		return 0, false
	}
	return id, true
}

// ExpressInterest godoc
// @Summary Express interest in meeting someone
// @Description Record that you want to meet the person at the given slot. The other person is not notified. If they have already expressed interest in you for a valid slot of yours, a mutual match is created and the response carries it.
// @Tags discover
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ExpressInterestRequest true "Target person and their slot"
// @Success 201 {object} controllers.ExpressInterestSuccessResponse "data contains mutual_match and, when mutual, the match"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/interest [post]
func (c *MatchController) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ExpressInterestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.ExpressInterest(r.Context(), actorID, req.TargetID, req.SlotID)
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// ListSent godoc
// @Summary List my sent interest expressions
// @Description Returns every interest expression the authenticated user has made, newest first.
// @Tags discover
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ExpressionListSuccessResponse "data contains the expressions"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/interests/sent [get]
func (c *MatchController) ListSent(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	expressions, err := c.Service.ListSentExpressions(r.Context(), actorID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, expressions)
}

// ListMatches godoc
// @Summary List my matches
// @Description Returns the authenticated user's mutual matches with the other participant and the anchoring slot, newest first.
// @Tags discover
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MatchListSuccessResponse "data contains the matches"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/matches [get]
func (c *MatchController) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	matches, err := c.Service.ListMatches(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, matches)
}

// ProposeTime godoc
// @Summary Propose a meeting time
// @Description Propose a concrete datetime for a match. Either participant may propose; a new proposal replaces the previous one until confirmed.
// @Tags discover
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param matchID path int true "Match ID"
// @Param body body ProposeTimeRequest true "Proposed datetime"
// @Success 200 {object} controllers.MatchSuccessResponse "data contains the updated match"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/matches/{matchID}/propose-time [post]
func (c *MatchController) ProposeTime(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}
	var req ProposeTimeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	match, err := c.Service.ProposeTime(r.Context(), matchID, userID, req.Datetime)
	if err != nil {
		c.writeMatchError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, match)
}

// Confirm godoc
// @Summary Confirm a proposed meeting time
// @Description Confirm the currently proposed datetime. Only the participant who did not propose can confirm; a confirmed match is final.
// @Tags discover
// @Produce json
// @Security BearerAuth
// @Param matchID path int true "Match ID"
// @Success 200 {object} controllers.MatchSuccessResponse "data contains the confirmed match"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /discover/matches/{matchID}/confirm [post]
func (c *MatchController) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}
	match, err := c.Service.Confirm(r.Context(), matchID, userID)
	if err != nil {
		c.writeMatchError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, match)
}

// writeMatchError maps match lifecycle errors onto the response envelope.
func (c *MatchController) writeMatchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "match not found")
	case errors.Is(err, domain.ErrNotAParticipant):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrSelfConfirmation):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyConfirmed), errors.Is(err, domain.ErrNoProposalYet):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
