package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"neotogether/internal/delivery/http/helpers"
	"neotogether/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SignupRequest is the request body for POST /auth/signup
type SignupRequest struct {
	FirstName   string  `json:"first_name"`
	BirthYear   int     `json:"birth_year"`
	Gender      string  `json:"gender"`
	InterestIDs []int64 `json:"interest_ids"`
}

// Validate implements Validator.
func (s SignupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if s.BirthYear == 0 {
		errs = append(errs, "birth_year is required")
	}
	if strings.TrimSpace(s.Gender) == "" {
		errs = append(errs, "gender is required")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	FirstName  string `json:"first_name"`
	PrivateKey string `json:"private_key"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if l.PrivateKey == "" {
		errs = append(errs, "private_key is required")
	}
	return errs
}

// SignupWithEmailRequest is the request body for POST /auth/signup-with-email
type SignupWithEmailRequest struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	BirthYear   int     `json:"birth_year"`
	Gender      string  `json:"gender"`
	InterestIDs []int64 `json:"interest_ids"`
}

// Validate implements Validator.
func (s SignupWithEmailRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if strings.TrimSpace(s.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if s.BirthYear == 0 {
		errs = append(errs, "birth_year is required")
	}
	if strings.TrimSpace(s.Gender) == "" {
		errs = append(errs, "gender is required")
	}
	return errs
}

// MagicLinkRequest is the request body for POST /auth/request-magic-link
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (m MagicLinkRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(m.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// VerifyMagicLinkRequest is the request body for POST /auth/verify-magic-link
type VerifyMagicLinkRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (v VerifyMagicLinkRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(v.Token) == "" {
		errs = append(errs, "token is required")
	}
	return errs
}

// LoginResponse is the response body for POST /auth/login and /auth/verify-magic-link
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

// MessageResponse carries a human-readable status message for endpoints
// with no entity to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// ApprovedNamesResponse is the response body for GET /auth/approved-names
type ApprovedNamesResponse struct {
	Names []string `json:"names"`
}

// SignupSuccessResponse is the success response envelope for POST /auth/signup (201).
type SignupSuccessResponse struct {
	Data  *domain.SignupResult `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// LoginSuccessResponse is the success response envelope for POST /auth/login (200).
type LoginSuccessResponse struct {
	Data  LoginResponse     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// MessageSuccessResponse is the success response envelope for endpoints that
// return only a status message.
type MessageSuccessResponse struct {
	Data  MessageResponse   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ApprovedNamesSuccessResponse is the success response envelope for GET /auth/approved-names (200).
type ApprovedNamesSuccessResponse struct {
	Data  ApprovedNamesResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// AuthController handles signup and authentication endpoints.
type AuthController struct {
	Logger        *slog.Logger
	Service       domain.UserService
	ApprovedNames []string
}

// NewAuthController creates an AuthController with the given logger, service,
// and approved first-name list.
func NewAuthController(logger *slog.Logger, svc domain.UserService, approvedNames []string) *AuthController {
	return &AuthController{
		Logger:        logger,
		Service:       svc,
		ApprovedNames: approvedNames,
	}
}

// Signup godoc
// @Summary Sign up with an approved first name
// @Description Create an account from a first name on the approved list plus birth year, gender, and optional interests. The response contains a generated private key shown exactly once; it is the only credential for this account.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignupRequest true "Signup data"
// @Success 201 {object} controllers.SignupSuccessResponse "data contains the user and the one-time private key"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.Signup(r.Context(), req.FirstName, req.BirthYear, req.Gender, req.InterestIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// Login godoc
// @Summary Log in with first name and private key
// @Description Authenticate with a first name and the private key issued at signup. People sharing a first name are disambiguated by the key. Returns a JWT and the user.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains token, token_type, and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.FirstName, req.PrivateKey)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid credentials")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", User: user})
}

// SignupWithEmail godoc
// @Summary Sign up with an email address
// @Description Create an account tied to an email address. No password is set; a welcome email with a magic sign-in link is sent instead.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignupWithEmailRequest true "Signup data"
// @Success 201 {object} controllers.MessageSuccessResponse "data contains a status message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup-with-email [post]
func (c *AuthController) SignupWithEmail(w http.ResponseWriter, r *http.Request) {
	var req SignupWithEmailRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Service.SignupWithEmail(r.Context(), req.Email, req.FirstName, req.BirthYear, req.Gender, req.InterestIDs)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "email already registered")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, MessageResponse{Message: "check your email for a sign-in link"})
}

// RequestMagicLink godoc
// @Summary Request a magic sign-in link
// @Description Send a fresh magic link to the given email if an account exists. Always returns 200 so the endpoint cannot be used to enumerate registered addresses.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body MagicLinkRequest true "Email address"
// @Success 200 {object} controllers.MessageSuccessResponse "data contains a status message"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/request-magic-link [post]
func (c *AuthController) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req MagicLinkRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.RequestMagicLink(r.Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "if that address has an account, a sign-in link is on its way"})
}

// VerifyMagicLink godoc
// @Summary Verify a magic link token
// @Description Consume a magic link token and return a JWT. Tokens are single use and expire after a short window.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body VerifyMagicLinkRequest true "Magic link token"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains token, token_type, and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/verify-magic-link [post]
func (c *AuthController) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	var req VerifyMagicLinkRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.VerifyMagicLink(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidMagicToken) {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid or expired magic link")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", User: user})
}

// ApprovedNamesList godoc
// @Summary List approved first names
// @Description Returns the fixed list of first names accepted at signup, sorted alphabetically.
// @Tags auth
// @Produce json
// @Success 200 {object} controllers.ApprovedNamesSuccessResponse "data contains the name list"
// @Router /auth/approved-names [get]
func (c *AuthController) ApprovedNamesList(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONSuccess(w, http.StatusOK, ApprovedNamesResponse{Names: c.ApprovedNames})
}
