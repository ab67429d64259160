package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/voice"
	errx "github.com/vaanisewa-core/server/internal/core/error"
	logx "github.com/vaanisewa-core/server/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentialsMessage = "invalid email or password"

type userRecord struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedisUserStore registers and authenticates users. Passwords are stored as
// bcrypt hashes keyed by the lower-cased email.
type RedisUserStore struct {
	rdb  redis.Cmdable
	cost int
}

func NewRedisUserStore(rdb redis.Cmdable, cost int) *RedisUserStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &RedisUserStore{rdb: rdb, cost: cost}
}

func (s *RedisUserStore) userKey(email string) string {
	return "vaanisewa:user:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *RedisUserStore) Signup(ctx context.Context, fullName, email, password string) (model.User, error) {
	switch {
	case voice.ValidateName(fullName) != nil:
		return model.User{}, errx.Validation(voice.ValidateName(fullName), "a valid full name is required")
	case !voice.IsValidEmail(email):
		return model.User{}, errx.Validation(errors.New("invalid email"), "a valid email address is required")
	case voice.ValidatePassword(password) != nil:
		return model.User{}, errx.Validation(voice.ValidatePassword(password), "password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	rec := userRecord{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(fullName),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return model.User{}, fmt.Errorf("marshal user: %w", err)
	}

	key := s.userKey(email)
	created, err := s.rdb.SetNX(ctx, key, raw, 0).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store user")
		return model.User{}, errx.WrapRedis(err)
	}
	if !created {
		return model.User{}, errx.Conflict(model.ErrUserExists, "User already exists")
	}

	logx.Info().Str("userID", rec.ID).Msg("user signed up")
	return rec.user(), nil
}

func (s *RedisUserStore) Login(ctx context.Context, email, password string) (model.User, error) {
	key := s.userKey(email)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, errx.Unauthorized(model.ErrInvalidCredentials, invalidCredentialsMessage)
	}
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load user")
		return model.User{}, errx.WrapRedis(err)
	}

	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return model.User{}, errx.Unauthorized(model.ErrInvalidCredentials, invalidCredentialsMessage)
	}

	logx.Info().Str("userID", rec.ID).Msg("user logged in")
	return rec.user(), nil
}

func (r userRecord) user() model.User {
	return model.User{ID: r.ID, FullName: r.FullName, Email: r.Email}
}

var _ model.AuthService = (*RedisUserStore)(nil)
