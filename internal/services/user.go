package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"neotogether/internal/domain"
)

const (
	privateKeyBytes      = 16
	magicTokenBytes      = 32
	magicTokenExpiryMins = 15

	minBirthYear = 1900
	maxBirthYear = 2010
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type userService struct {
	userRepo     domain.UserRepository
	taxonomyRepo domain.InterestTaxonomyRepository
	hasher       domain.PrivateKeyHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	emailService domain.EmailService
	frontendURL  string
}

// NewUserService creates a UserService with the given repositories and auth ports.
func NewUserService(
	userRepo domain.UserRepository,
	taxonomyRepo domain.InterestTaxonomyRepository,
	hasher domain.PrivateKeyHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	emailService domain.EmailService,
	frontendURL string,
) domain.UserService {
	return &userService{
		userRepo:     userRepo,
		taxonomyRepo: taxonomyRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		emailService: emailService,
		frontendURL:  frontendURL,
	}
}

func (s *userService) Signup(ctx context.Context, firstName string, birthYear int, gender string, interestIDs []int64) (*domain.SignupResult, error) {
	user, privateKey, err := s.buildUser(ctx, firstName, birthYear, gender, interestIDs)
	if err != nil {
		return nil, err
	}
	if err := s.createWithInterests(ctx, user, interestIDs); err != nil {
		return nil, err
	}
	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &domain.SignupResult{User: created, PrivateKey: privateKey}, nil
}

func (s *userService) Login(ctx context.Context, firstName, privateKey string) (string, *domain.User, error) {
	name := NormalizeName(firstName)
	candidates, err := s.userRepo.ListByFirstName(ctx, name)
	if err != nil {
		return "", nil, fmt.Errorf("list users by name: %w", err)
	}
	// Names are not unique, so try each candidate's hash.
	for _, u := range candidates {
		if s.hasher.Compare(u.PrivateKeyHash, privateKey) == nil {
			token, err := s.tokenIssuer.Issue(u.ID, u.Email, s.tokenExpiry)
			if err != nil {
				return "", nil, fmt.Errorf("sign token: %w", err)
			}
			return token, u, nil
		}
	}
	return "", nil, domain.ErrInvalidCredentials
}

func (s *userService) SignupWithEmail(ctx context.Context, email, firstName string, birthYear int, gender string, interestIDs []int64) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	user, _, err := s.buildUser(ctx, firstName, birthYear, gender, interestIDs)
	if err != nil {
		return err
	}
	user.Email = email
	if err := s.createWithInterests(ctx, user, interestIDs); err != nil {
		return err
	}

	token, err := s.issueMagicToken(ctx, user.ID)
	if err != nil {
		return err
	}
	data := &domain.WelcomeMessageEmailData{
		Email:            email,
		FirstName:        user.FirstName,
		MagicLink:        s.magicLink(token),
		ExpiresInMinutes: magicTokenExpiryMins,
	}
	if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}

func (s *userService) RequestMagicLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Report success either way so the endpoint does not reveal
			// whether an account exists.
			return nil
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	token, err := s.issueMagicToken(ctx, user.ID)
	if err != nil {
		return err
	}
	data := &domain.MagicLinkEmailData{
		Email:            email,
		MagicLink:        s.magicLink(token),
		ExpiresInMinutes: magicTokenExpiryMins,
	}
	if err := s.emailService.SendMagicLink(ctx, data); err != nil {
		return fmt.Errorf("send magic link email: %w", err)
	}
	return nil
}

func (s *userService) VerifyMagicLink(ctx context.Context, token string) (string, *domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil, domain.ErrInvalidMagicToken
	}
	userID, err := s.userRepo.ConsumeMagicToken(ctx, hashToken(token), time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidMagicToken
		}
		return "", nil, fmt.Errorf("consume magic token: %w", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	jwtToken, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return jwtToken, user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdatePreferences(ctx context.Context, userID string, prefs domain.MatchPreferences) (*domain.User, error) {
	if prefs.MinAge != nil && prefs.MaxAge != nil && *prefs.MinAge > *prefs.MaxAge {
		return nil, fmt.Errorf("%w: min_age_preference exceeds max_age_preference", domain.ErrInvalidInput)
	}
	if prefs.MinGroupSize < 2 {
		return nil, fmt.Errorf("%w: min_group_size must be at least 2", domain.ErrInvalidInput)
	}
	if prefs.MaxGroupSize < prefs.MinGroupSize {
		return nil, fmt.Errorf("%w: max_group_size below min_group_size", domain.ErrInvalidInput)
	}
	if err := s.userRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return s.GetByID(ctx, userID)
}

func (s *userService) ToggleAvailability(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	next := !user.IsAvailable
	if err := s.userRepo.SetAvailable(ctx, userID, next); err != nil {
		return false, fmt.Errorf("set availability: %w", err)
	}
	return next, nil
}

// buildUser validates the common signup fields and returns an unsaved user
// plus the plaintext private key.
func (s *userService) buildUser(ctx context.Context, firstName string, birthYear int, gender string, interestIDs []int64) (*domain.User, string, error) {
	name := NormalizeName(firstName)
	if !IsApprovedName(name) {
		return nil, "", fmt.Errorf("%w: name %q is not in the approved list", domain.ErrInvalidInput, firstName)
	}
	if birthYear < minBirthYear || birthYear > maxBirthYear {
		return nil, "", fmt.Errorf("%w: birth year must be between %d and %d", domain.ErrInvalidInput, minBirthYear, maxBirthYear)
	}
	if strings.TrimSpace(gender) == "" {
		return nil, "", fmt.Errorf("%w: gender is required", domain.ErrInvalidInput)
	}
	if len(interestIDs) > 0 {
		interests, err := s.taxonomyRepo.ListByIDs(ctx, interestIDs)
		if err != nil {
			return nil, "", fmt.Errorf("load interests: %w", err)
		}
		if len(interests) != len(interestIDs) {
			return nil, "", fmt.Errorf("%w: one or more interest ids are invalid", domain.ErrInvalidInput)
		}
	}

	privateKey, err := randomHex(privateKeyBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate private key: %w", err)
	}
	hash, err := s.hasher.Hash(privateKey)
	if err != nil {
		return nil, "", fmt.Errorf("hash private key: %w", err)
	}
	user := domain.NewUser(uuid.NewString(), name, birthYear, strings.TrimSpace(gender), hash, time.Now())
	return user, privateKey, nil
}

func (s *userService) createWithInterests(ctx context.Context, user *domain.User, interestIDs []int64) error {
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	if len(interestIDs) > 0 {
		if err := s.userRepo.ReplaceInterests(ctx, user.ID, interestIDs); err != nil {
			return fmt.Errorf("set interests: %w", err)
		}
	}
	return nil
}

func (s *userService) issueMagicToken(ctx context.Context, userID string) (string, error) {
	token, err := randomHex(magicTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate magic token: %w", err)
	}
	expiresAt := time.Now().Add(magicTokenExpiryMins * time.Minute)
	if err := s.userRepo.SetMagicToken(ctx, userID, hashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("store magic token: %w", err)
	}
	return token, nil
}

func (s *userService) magicLink(token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", strings.TrimSuffix(s.frontendURL, "/"), token)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken hashes a magic token for storage; only the hash is kept at rest.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
