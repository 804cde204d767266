package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"triadStreakAPI/internal/user"
	"triadStreakAPI/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
)

// ValidationError carries per-field messages so the caller can render them
// inline instead of as a single failure string.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

type AuthService struct {
	db *pgxpool.Pool
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{db: db}
}

// Register validates the input, creates the user with a zeroed streak row,
// and returns a signed access token.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	if fields := ValidateStruct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, u.ID, u.Email, u.Username, hash, u.CreatedAt, u.UpdatedAt).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if constraint := uniqueViolation(err); constraint != "" {
			switch constraint {
			case "users_email_key":
				return nil, ErrEmailTaken
			case "users_username_key":
				return nil, ErrUsernameTaken
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Every user owns exactly one streak row from day one.
	_, err = tx.Exec(ctx, `
	INSERT INTO user_streaks (id, user_id, current_streak, longest_streak, badges)
	VALUES ($1, $2, 0, 0, '[]'::jsonb)
	`, uuid.New(), u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	token, err := utils.GenerateToken(u.ID.String(), u.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	utils.Logger.Info("user_registered",
		zap.String("user_id", u.ID.String()),
		zap.String("username", u.Username),
	)

	return &user.AuthResponse{User: u, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	if fields := ValidateStruct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	u := &user.User{}
	query := `
	SELECT id, email, username, password_hash, created_at, updated_at
	FROM users
	WHERE email = $1
	`
	err := s.db.QueryRow(ctx, query, req.Email).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(u.ID.String(), u.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	u.PasswordHash = ""
	return &user.AuthResponse{User: u, Token: token}, nil
}

func uniqueViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
