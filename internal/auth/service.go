package auth

import (
	"context"
	"errors"
	"strings"

	"climblog/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAlreadyRegistered = errors.New("username already registered")
	ErrNotRegistered     = errors.New("username not registered")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrMissingFields     = errors.New("username and password are required")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
)

// bcrypt only hashes the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

const pgUniqueViolation = "23505"

var (
	hashPasswordFn = bcrypt.GenerateFromPassword
	bcryptCost     = bcrypt.DefaultCost
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// NormalizeUsername lower-cases and trims so that "Alex " and "alex" are one account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	username := NormalizeUsername(req.Username)
	if username == "" || req.Password == "" {
		return User{}, ErrMissingFields
	}
	if len(req.Password) > maxPasswordBytes {
		return User{}, ErrPasswordTooLong
	}

	if _, err := s.findByUsername(ctx, username); err == nil {
		return User{}, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrNotRegistered) {
		return User{}, err
	}

	hash, err := hashPasswordFn([]byte(req.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, email)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, user.ID, user.Username, user.PasswordHash, user.Email)
	if err := row.Scan(&user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrAlreadyRegistered
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (User, error) {
	user, err := s.findByUsername(ctx, NormalizeUsername(req.Username))
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return User{}, ErrInvalidPassword
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, email, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *Service) findByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, email, created_at
		FROM users WHERE username = $1
	`, username))
}

func (s *Service) scanUser(row pgx.Row) (User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotRegistered
		}
		return User{}, err
	}
	return user, nil
}
