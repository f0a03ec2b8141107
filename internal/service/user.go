package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/metrics"
	"github.com/yaroslav/recipebox/internal/storage"
	"github.com/yaroslav/recipebox/internal/util"
	"github.com/yaroslav/recipebox/models"
	"github.com/yaroslav/recipebox/pkg/password"
	"github.com/yaroslav/recipebox/pkg/token"
)

const userColumns = `id, email, name, password_hash, is_active, is_staff, created_at, updated_at`

// UserService provides account registration, authentication and profile updates.
type UserService struct {
	db     *storage.DB
	logger *zap.Logger
	hasher *password.Hasher
	issuer *token.Issuer

	// dummyHash is compared against when the email is unknown so that a
	// failed lookup costs the same as a wrong password.
	dummyHash string
}

// NewUserService creates a new UserService.
//
// Parameters:
//   - db: Database handle
//   - logger: Zap logger for structured logging
//   - hasher: Password hasher
//   - issuer: Access token issuer
func NewUserService(db *storage.DB, logger *zap.Logger, hasher *password.Hasher, issuer *token.Issuer) (*UserService, error) {
	dummy, err := hasher.Hash("recipebox-dummy-password")
	if err != nil {
		return nil, err
	}
	return &UserService{
		db:        db,
		logger:    logger,
		hasher:    hasher,
		issuer:    issuer,
		dummyHash: dummy,
	}, nil
}

// Create registers a regular user.
//
// Returns models.ErrEmailExists when the normalized email is taken, and
// models.ErrPasswordTooShort or models.ErrPasswordTooLong when the password
// length is out of range.
func (s *UserService) Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	user, err := s.create(ctx, req.Email, req.Name, req.Password, false)
	metrics.UserRegistrations.WithLabelValues(registrationStatus(err)).Inc()
	return user, err
}

// CreateSuperuser registers a staff user. Used by the create-superuser command.
func (s *UserService) CreateSuperuser(ctx context.Context, email, name, plain string) (*models.User, error) {
	return s.create(ctx, email, name, plain, true)
}

func (s *UserService) create(ctx context.Context, email, name, plain string, staff bool) (*models.User, error) {
	email = util.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(name) == "" {
		return nil, models.ErrInvalidRequest
	}
	if err := validatePassword(plain); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      staff,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.QueryRow(ctx, "user_create", `
		INSERT INTO users (email, name, password_hash, is_active, is_staff, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		[]any{user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff, now, now},
		&user.ID,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, models.ErrEmailExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	s.log(ctx).Info("user created",
		zap.Int64(logging.FieldUserID, user.ID),
		zap.Bool("is_staff", staff),
	)
	return user, nil
}

// Authenticate checks an email/password pair against active users.
//
// Every failure, including blank input and inactive accounts, is reported as
// models.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, plain string) (*models.User, error) {
	email = util.NormalizeEmail(email)
	if email == "" || plain == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.getByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			_ = s.hasher.Verify(s.dummyHash, plain)
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Verify(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken authenticates the credentials and returns a signed access token.
func (s *UserService) IssueToken(ctx context.Context, req *models.TokenCreateRequest) (*models.TokenOut, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			metrics.TokensIssued.WithLabelValues("invalid_credentials").Inc()
		}
		return nil, err
	}

	access, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues("issued").Inc()

	s.log(ctx).Debug("access token issued",
		zap.Int64(logging.FieldUserID, user.ID),
		zap.Time("expires_at", expiresAt),
	)
	return &models.TokenOut{Access: access}, nil
}

// UserFromToken resolves a bearer token to an active user.
//
// Any failure is reported as models.ErrUnauthorized. A token that does not
// parse or verify also matches models.ErrInvalidToken.
func (s *UserService) UserFromToken(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		s.log(ctx).Debug("token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthorized, models.ErrInvalidToken)
	}

	user, err := s.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrUnauthorized
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx, "user_get", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *UserService) getByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "user_get_by_email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (s *UserService) getOne(ctx context.Context, op, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, op, query, []any{arg},
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.IsActive, &user.IsStaff, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// List returns all users ordered by ID.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, "user_list", `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.IsActive, &user.IsStaff, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateName changes the display name of user id.
//
// The actor must be that user or staff, otherwise models.ErrForbidden is
// returned before the target is looked up.
func (s *UserService) UpdateName(ctx context.Context, actor *models.User, id int64, name string) (*models.User, error) {
	if err := authorizeUserChange(actor, id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, models.ErrInvalidRequest
	}

	if err := s.update(ctx, "user_update_name", `UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id); err != nil {
		return nil, err
	}

	s.log(ctx).Info("user name updated", zap.Int64(logging.FieldUserID, id), zap.Int64("actor_id", actor.ID))
	return s.Get(ctx, id)
}

// UpdatePassword sets a new password for user id. Same authorization as UpdateName.
func (s *UserService) UpdatePassword(ctx context.Context, actor *models.User, id int64, plain string) (*models.User, error) {
	if err := authorizeUserChange(actor, id); err != nil {
		return nil, err
	}
	if err := validatePassword(plain); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	if err := s.update(ctx, "user_update_password", `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id); err != nil {
		return nil, err
	}

	s.log(ctx).Info("user password updated", zap.Int64(logging.FieldUserID, id), zap.Int64("actor_id", actor.ID))
	return s.Get(ctx, id)
}

func (s *UserService) update(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.Exec(ctx, op, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func authorizeUserChange(actor *models.User, id int64) error {
	if actor == nil {
		return models.ErrAuthenticationRequired
	}
	if actor.ID != id && !actor.IsStaff {
		return models.ErrForbidden
	}
	return nil
}

// validatePassword checks the length bounds. The upper bound is in bytes
// since that is what bcrypt accepts.
func validatePassword(plain string) error {
	switch {
	case len(plain) < models.MinPasswordLength:
		return models.ErrPasswordTooShort
	case len(plain) > models.MaxPasswordLength:
		return models.ErrPasswordTooLong
	}
	return nil
}

func registrationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrEmailExists):
		return "duplicate"
	default:
		return "error"
	}
}

// log returns the request-scoped logger carried by ctx, if any.
func (s *UserService) log(ctx context.Context) *zap.Logger {
	return logging.FromContextOr(ctx, s.logger)
}
