package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"neotogether/internal/delivery/http/controllers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/domain"
)

// Controllers bundles the controllers the router wires up.
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Availability *controllers.AvailabilityController
	Discovery    *controllers.DiscoveryController
	Match        *controllers.MatchController
	Group        *controllers.GroupController
}

// NewRouter initializes the HTTP router with all application routes.
// Everything past auth and the taxonomy requires a Bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.Signup)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("POST /auth/signup-with-email", c.Auth.SignupWithEmail)
	mux.HandleFunc("POST /auth/request-magic-link", c.Auth.RequestMagicLink)
	mux.HandleFunc("POST /auth/verify-magic-link", c.Auth.VerifyMagicLink)
	mux.HandleFunc("GET /auth/approved-names", c.Auth.ApprovedNamesList)

	// Taxonomy
	mux.HandleFunc("GET /interests", c.User.ListInterests)

	// Profile
	mux.HandleFunc("GET /users/me", auth(c.User.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(c.User.UpdatePreferences))
	mux.HandleFunc("PATCH /users/me/availability", auth(c.User.ToggleAvailability))

	// Availability slots
	mux.HandleFunc("GET /availability", auth(c.Availability.List))
	mux.HandleFunc("POST /availability", auth(c.Availability.Create))
	mux.HandleFunc("GET /availability/{slotID}", auth(c.Availability.Get))
	mux.HandleFunc("PATCH /availability/{slotID}", auth(c.Availability.Update))
	mux.HandleFunc("DELETE /availability/{slotID}", auth(c.Availability.Delete))

	// Discovery and matching
	mux.HandleFunc("GET /discover/locations", auth(c.Discovery.Locations))
	mux.HandleFunc("GET /discover/locations/{slotID}/people", auth(c.Discovery.People))
	mux.HandleFunc("POST /discover/interest", auth(c.Match.ExpressInterest))
	mux.HandleFunc("GET /discover/interests/sent", auth(c.Match.ListSent))
	mux.HandleFunc("GET /discover/matches", auth(c.Match.ListMatches))
	mux.HandleFunc("POST /discover/matches/{matchID}/propose-time", auth(c.Match.ProposeTime))
	mux.HandleFunc("POST /discover/matches/{matchID}/confirm", auth(c.Match.Confirm))

	// Groups
	mux.HandleFunc("GET /groups", auth(c.Group.ListMyGroups))
	mux.HandleFunc("GET /groups/join-requests", auth(c.Group.ListJoinRequests))
	mux.HandleFunc("POST /groups/{groupID}/join", auth(c.Group.RequestJoin))
	mux.HandleFunc("POST /groups/join-requests/{requestID}/accept", auth(c.Group.AcceptJoinRequest))
	mux.HandleFunc("POST /groups/join-requests/{requestID}/decline", auth(c.Group.DeclineJoinRequest))

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
