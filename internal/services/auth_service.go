package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/models"
)

type authServiceImpl struct {
	logger        zerolog.Logger
	pgPool        *pgxpool.Pool
	jwtIssuer     string
	jwtSigningKey []byte
	jwtTokenTTL   time.Duration
	sessionTTL    time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtTokenTTL time.Duration,
	sessionTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:        logger,
		pgPool:        pgPool,
		jwtIssuer:     jwtIssuer,
		jwtSigningKey: jwtSigningKey,
		jwtTokenTTL:   jwtTokenTTL,
		sessionTTL:    sessionTTL,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	now := time.Now()
	user := models.User{
		Email:     params.Email,
		Name:      params.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   name,
                   password,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = tx.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Name,
		user.Password,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				s.logger.Error().
					Str("email", user.Email).
					Msg("user with this email already exists")
				return nil, ErrUserAlreadyExists
			}
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("inserted user")

	session, err := s.insertSession(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", session.ID).
		Msg("registered user")
	return &AuthResult{
		User:             user,
		SessionToken:     session.Token,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user := models.User{
		Email: params.Email,
	}

	const selectUserByEmailQuery = `
SELECT id,
       name,
       password
FROM users
WHERE email = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		user.Email,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", user.Email).
			Msg("failed to select user by email")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
       WHERE user_id = $1
`
	tag, err := tx.Exec(
		ctx,
		deleteSessionsByUserIDQuery,
		user.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete sessions by user id")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted sessions by user id")

	session, err := s.insertSession(ctx, tx, user.ID)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("session_id", session.ID).
		Msg("logged in")
	return &AuthResult{
		User:             user,
		SessionToken:     session.Token,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, sessionToken string) error {
	const deleteSessionByTokenQuery = `
DELETE FROM sessions
       WHERE token = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteSessionByTokenQuery,
		sessionToken,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete session by token")
		return err
	}
	s.logger.Debug().
		Int64("affected", tag.RowsAffected()).
		Msg("deleted session by token")

	s.logger.Info().Msg("logged out")
	return nil
}

func (s *authServiceImpl) SessionByToken(ctx context.Context, sessionToken string) (*SessionInfo, error) {
	info := SessionInfo{
		Session: models.Session{Token: sessionToken},
	}

	const selectSessionWithUserQuery = `
SELECT s.id,
       s.user_id,
       s.expires_at,
       s.created_at,
       s.updated_at,
       u.email,
       u.name
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSessionWithUserQuery,
		info.Session.Token,
	).Scan(
		&info.Session.ID,
		&info.Session.UserID,
		&info.Session.ExpiresAt,
		&info.Session.CreatedAt,
		&info.Session.UpdatedAt,
		&info.User.Email,
		&info.User.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select session by token")
		return nil, err
	}
	info.User.ID = info.Session.UserID

	if info.Session.ExpiresAt.Before(time.Now()) {
		s.logger.Error().
			Str("session_id", info.Session.ID).
			Time("expires_at", info.Session.ExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}
	s.logger.Debug().
		Str("session_id", info.Session.ID).
		Str("user_id", info.Session.UserID).
		Msg("selected session by token")

	return &info, nil
}

func (s *authServiceImpl) IssueAPIToken(user *models.User) (string, time.Time, error) {
	if len(s.jwtSigningKey) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt signing key is not configured")
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, APITokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtIssuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Name:  user.Name,
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *authServiceImpl) VerifyAPIToken(token string) (*APITokenClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&APITokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*APITokenClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}

func (s *authServiceImpl) insertSession(ctx context.Context, tx pgx.Tx, userID string) (*models.Session, error) {
	now := time.Now()
	session := models.Session{
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session uuid")
		return nil, err
	}
	session.ID = sessionUUID.String()

	sessionToken, err := generateSessionToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session token")
		return nil, err
	}
	session.Token = sessionToken

	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      token,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err = tx.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Msg("inserted session")

	return &session, nil
}

func generateSessionToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
