package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fasttrack/internal/domain"
	"fasttrack/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService owns account lifecycle and the logged-in-user singleton. Login
// returns the user; callers pass the user id into every subsequent call
// rather than querying an ambient global.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*domain.User, error)
	LoginAsGuest(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetSettings(ctx context.Context, userID int64) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, settings *domain.Settings) error
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
	ClearAllUserData(ctx context.Context, userID int64) error
}

type authService struct {
	store            repository.Store
	defaultGoalHours float64
	latch            *inflight
}

func NewAuthService(store repository.Store, defaultGoalHours float64) AuthService {
	if defaultGoalHours <= 0 {
		defaultGoalHours = 16
	}
	return &authService{
		store:            store,
		defaultGoalHours: defaultGoalHours,
		latch:            newInflight(),
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.register(ctx, username, email, password, false)
}

func (s *authService) register(ctx context.Context, username, email, password string, guest bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	// validation happens before any store access; a rejected registration
	// leaves no trace
	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", domain.ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}

	key := "register:" + username
	if !s.latch.acquire(key) {
		return nil, domain.ErrBusy
	}
	defer s.latch.release(key)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	// user, profile and settings land together or not at all
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Profiles().Put(ctx, &domain.Profile{
			UserID:   user.ID,
			Name:     username,
			JoinedAt: now,
			IsGuest:  guest,
		}); err != nil {
			return err
		}
		settings := domain.DefaultSettings(user.ID, s.defaultGoalHours)
		if guest {
			settings.Notifications = false
		}
		return tx.Settings().Put(ctx, &settings)
	})
	if err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", domain.ErrValidation)
	}

	key := "login:" + identifier
	if !s.latch.acquire(key) {
		return nil, domain.ErrBusy
	}
	defer s.latch.release(key)

	// email index first, username as fallback
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(identifier))
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.store.Users().GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidPassword
	}

	now := time.Now().UTC()
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		return tx.AuthState().Set(ctx, &domain.AuthState{UserID: user.ID, LoginTime: now})
	})
	if err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return sanitizeUser(user), nil
}

// LoginAsGuest synthesizes a throwaway account and runs it through the normal
// registration and login paths. Guests get notifications off by default.
func (s *authService) LoginAsGuest(ctx context.Context) (*domain.User, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	username := "guest-" + suffix
	email := username + "@guest.local"
	password := uuid.NewString()

	if _, err := s.register(ctx, username, email, password, true); err != nil {
		return nil, err
	}
	return s.Login(ctx, username, password)
}

func (s *authService) Logout(ctx context.Context) error {
	return s.store.AuthState().Clear(ctx)
}

// CurrentUser resolves the persisted auth singleton. A missing row or a
// dangling user reference both read as logged out.
func (s *authService) CurrentUser(ctx context.Context) (*domain.User, error) {
	state, err := s.store.AuthState().Get(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, state.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// GetSettings returns the stored settings, or defaults when the user has
// never saved any.
func (s *authService) GetSettings(ctx context.Context, userID int64) (*domain.Settings, error) {
	settings, err := s.store.Settings().Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		defaults := domain.DefaultSettings(userID, s.defaultGoalHours)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *authService) UpdateSettings(ctx context.Context, settings *domain.Settings) error {
	if settings.GoalHours <= 0 {
		return fmt.Errorf("%w: goal hours must be positive", domain.ErrValidation)
	}
	return s.store.Settings().Put(ctx, settings)
}

func (s *authService) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return s.store.Profiles().Put(ctx, profile)
}

// ClearAllUserData wipes one user's rows across every collection in a single
// transaction. The user row itself survives; auth state is cleared only when
// it points at this user, so another account's login is untouched.
func (s *authService) ClearAllUserData(ctx context.Context, userID int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Profiles().Delete(ctx, userID); err != nil {
			return err
		}
		if err := tx.Settings().Delete(ctx, userID); err != nil {
			return err
		}
		if err := tx.CurrentSessions().Delete(ctx, userID); err != nil {
			return err
		}
		if err := tx.HistorySessions().DeleteByUser(ctx, userID); err != nil {
			return err
		}

		state, err := tx.AuthState().Get(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if state.UserID == userID {
			return tx.AuthState().Clear(ctx)
		}
		return nil
	})
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
