package service

import (
	"context"
	"log/slog"

	"rupl/internal/models"
	"rupl/internal/observability"
	"rupl/internal/repository"
)

// AccountDefaults fill in optional registration fields.
type AccountDefaults struct {
	Avatar string
	Bio    string
}

// AuthService registers accounts and tracks the signed in user.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	verifier    CredentialVerifier
	defaults    AccountDefaults
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username      string `validate:"notblank"`
	Email         string `validate:"notblank"`
	Password      string `validate:"required"`
	Bio           string
	ProfilePic    string
	PrivacyAgreed bool `validate:"istrue"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string
	Password string
}

// NewAuthService returns a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	verifier CredentialVerifier,
	defaults AccountDefaults,
) *AuthService {
	if verifier == nil {
		verifier = DemoVerifier{}
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		defaults:    defaults,
	}
}

// Register creates an account with empty social sets and signs it in on
// this installation. Duplicate emails are accepted; login resolves to the
// earliest account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.CreateAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.SignIn(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAccount is Register without touching the installation session.
// Fields are stored exactly as given; blank checks look at trimmed values.
func (s *AuthService) CreateAccount(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "AuthService", "CreateAccount")
	defer func() {
		observability.ObserveMutation("register", err)
		observability.EndSpan(span, err)
	}()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	credential, err := s.verifier.Enroll(in.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Username:   in.Username,
		Email:      in.Email,
		ProfilePic: in.ProfilePic,
		Bio:        in.Bio,
		Followers:  []string{},
		Following:  []string{},
		Saved:      []string{},
	}
	if user.ProfilePic == "" {
		user.ProfilePic = s.defaults.Avatar
	}
	if user.Bio == "" {
		user.Bio = s.defaults.Bio
	}

	if err := s.userRepo.Create(ctx, user, credential); err != nil {
		return nil, err
	}

	observability.Logger.InfoContext(observability.WithUserID(ctx, user.ID), "account registered",
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login resolves the first account with exactly this email and signs it in
// on this installation.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.Authenticate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.SignIn(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials for the first account with exactly this
// email without touching the installation session.
func (s *AuthService) Authenticate(ctx context.Context, in LoginInput) (user *models.User, err error) {
	ctx, span := observability.TraceServiceCall(ctx, "AuthService", "Authenticate")
	defer func() { observability.EndSpan(span, err) }()

	user, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, models.NewAuthError("Password is required")
	}

	stored, err := s.userRepo.Credential(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Verify(stored, in.Password); err != nil {
		observability.Logger.WarnContext(ctx, "login rejected", slog.String("user_id", user.ID))
		return nil, err
	}
	return user, nil
}

// Logout clears the signed in user. It is a no-op when nobody is signed in.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessionRepo.SignOut(ctx)
}

// CurrentUser returns the signed in user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.sessionRepo.Current(ctx)
}

// SetPassword enrolls a new password for an existing account.
func (s *AuthService) SetPassword(ctx context.Context, userID, password string) error {
	if password == "" {
		return models.NewValidationError("Password is required")
	}
	credential, err := s.verifier.Enroll(password)
	if err != nil {
		return err
	}
	return s.userRepo.SetCredential(ctx, userID, credential)
}
