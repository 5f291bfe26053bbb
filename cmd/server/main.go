package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"neotogether/config"
	"neotogether/internal/adapters/auth"
	"neotogether/internal/adapters/email"
	httpdelivery "neotogether/internal/delivery/http"
	"neotogether/internal/delivery/http/controllers"
	"neotogether/internal/delivery/http/middleware"
	"neotogether/internal/repository/postgres"
	"neotogether/internal/services"

	"golang.org/x/crypto/bcrypt"
)

// @title Neo Together API
// @version 1.0
// @description Discovery, matching, and group formation for spontaneous meetups. All responses use the {"data":..., "error":{"code","message"}} envelope.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	taxonomyRepo := postgres.NewInterestTaxonomyRepository(db)
	availRepo := postgres.NewAvailabilityRepository(db)
	exprRepo := postgres.NewInterestExpressionRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	jrRepo := postgres.NewJoinRequestRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokenIssuer := auth.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.AWSInsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	tokenExpiry := time.Duration(cfg.TokenExpiryHours) * time.Hour
	userService := services.NewUserService(userRepo, taxonomyRepo, hasher, tokenIssuer, tokenExpiry, emailService, cfg.FrontendURL)
	availabilityService := services.NewAvailabilityService(availRepo)
	discoveryService := services.NewDiscoveryService(availRepo, userRepo)
	groupService := services.NewGroupService(groupRepo, jrRepo, availRepo, userRepo)
	matchingService := services.NewMatchingService(exprRepo, matchRepo, availRepo, userRepo, groupService)

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Auth:         controllers.NewAuthController(logger, userService, services.ApprovedNames()),
		User:         controllers.NewUserController(logger, userService, taxonomyRepo),
		Availability: controllers.NewAvailabilityController(logger, availabilityService),
		Discovery:    controllers.NewDiscoveryController(logger, discoveryService),
		Match:        controllers.NewMatchController(logger, matchingService),
		Group:        controllers.NewGroupController(logger, groupService),
	}, tokenVerifier, logger)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router))

	addr := ":" + cfg.Port
	logger.Info("server starting", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
