package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// GroupListSuccessResponse is the success response envelope for GET /groups (200).
type GroupListSuccessResponse struct {
	Data  []*domain.GroupWithMembers `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// JoinRequestSuccessResponse is the success response envelope for POST /groups/{groupID}/join (201).
type JoinRequestSuccessResponse struct {
	Data  *domain.JoinRequestResult `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// JoinRequestListSuccessResponse is the success response envelope for GET /groups/join-requests (200).
type JoinRequestListSuccessResponse struct {
	Data  []*domain.JoinRequestWithContext `json:"data"`
	Error *helpers.APIError                `json:"error"`
}

// JoinRespondSuccessResponse is the success response envelope for accept and decline (200).
type JoinRespondSuccessResponse struct {
	Data  *domain.GroupJoinRequest `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// GroupController handles group listings and the join request lifecycle.
type GroupController struct {
	Logger  *slog.Logger
	Service domain.GroupService
}

// NewGroupController creates a GroupController with the given logger and service.
func NewGroupController(logger *slog.Logger, svc domain.GroupService) *GroupController {
	return &GroupController{
		Logger:  logger,
		Service: svc,
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// ListMyGroups godoc
// @Summary List my groups
// @Description Returns every group the authenticated user is a confirmed member of, with members and the anchoring slot.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GroupListSuccessResponse "data contains the groups"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups [get]
func (c *GroupController) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groups, err := c.Service.ListMyGroups(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, groups)
}

// RequestJoin godoc
// @Summary Request to join a group
// @Description Ask to join an existing group. The request stays pending until any current member accepts or declines it. Rejected outright when the group is at the smallest member's size cap.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param groupID path int true "Group ID"
// @Success 201 {object} controllers.JoinRequestSuccessResponse "data contains the request; tentative is true when the group would still be below someone's comfortable minimum"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or group_full"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/{groupID}/join [post]
func (c *GroupController) RequestJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	groupID, ok := pathID(w, r, "groupID")
	if !ok {
		return
	}
	result, err := c.Service.RequestJoin(r.Context(), groupID, userID)
	if err != nil {
		c.writeJoinError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// ListJoinRequests godoc
// @Summary List pending join requests on my groups
// @Description Returns pending join requests targeting any group the authenticated user is a confirmed member of, with the requester's profile.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.JoinRequestListSuccessResponse "data contains the pending requests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/join-requests [get]
func (c *GroupController) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	requests, err := c.Service.ListJoinRequestsForUser(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, requests)
}

// AcceptJoinRequest godoc
// @Summary Accept a join request
// @Description Accept a pending join request on one of my groups. Any confirmed member may accept; capacity is re-checked at accept time.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param requestID path int true "Join request ID"
// @Success 200 {object} controllers.JoinRespondSuccessResponse "data contains the accepted request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or group_full"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/join-requests/{requestID}/accept [post]
func (c *GroupController) AcceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, true)
}

// DeclineJoinRequest godoc
// @Summary Decline a join request
// @Description Decline a pending join request on one of my groups. The requester may ask again later.
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param requestID path int true "Join request ID"
// @Success 200 {object} controllers.JoinRespondSuccessResponse "data contains the declined request"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /groups/join-requests/{requestID}/decline [post]
func (c *GroupController) DeclineJoinRequest(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, false)
}

func (c *GroupController) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	requestID, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	request, err := c.Service.RespondToJoinRequest(r.Context(), requestID, userID, accept)
	if err != nil {
		c.writeJoinError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, request)
}

// writeJoinError maps join request lifecycle errors onto the response envelope.
func (c *GroupController) writeJoinError(w http.ResponseWriter, r *http.Request, err error) {
	var full *domain.GroupFullError
	switch {
	case errors.As(err, &full):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeGroupFull,
			fmt.Sprintf("group is at its size limit of %d", full.MaxSize))
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrNotAMember):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrDuplicateJoinRequest),
		errors.Is(err, domain.ErrAlreadyResolved):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
