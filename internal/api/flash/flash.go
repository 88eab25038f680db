// Package flash carries one-shot page messages across a redirect.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/spec-kit/roster-service/internal/config"
)

// Kind selects how a message is styled.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is a single flashed notice.
type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"message"`
}

// Success builds a success message.
func Success(text string) Message { return Message{Kind: KindSuccess, Text: text} }

// Error builds an error message.
func Error(text string) Message { return Message{Kind: KindError, Text: text} }

// Store keeps messages for the browser that made the request until its next page render.
type Store interface {
	Add(c *fiber.Ctx, msg Message) error
	Pop(c *fiber.Ctx) ([]Message, error)
}

// New returns the store selected by cfg.Backend.
func New(cfg config.FlashConfig, rdb *redis.Client) (Store, error) {
	switch cfg.Backend {
	case config.FlashBackendRedis:
		if rdb == nil {
			return nil, errors.New("flash: redis backend requires a client")
		}
		return NewRedisStore(rdb, cfg), nil
	case config.FlashBackendCookie:
		return NewCookieStore(cfg), nil
	default:
		return nil, fmt.Errorf("flash: unknown backend %q", cfg.Backend)
	}
}

const keyPrefix = "flash:"

// RedisStore keeps messages under flash:<id>, where id lives in an HttpOnly cookie.
type RedisStore struct {
	rdb        *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(rdb *redis.Client, cfg config.FlashConfig) *RedisStore {
	return &RedisStore{rdb: rdb, cookieName: cfg.CookieName, ttl: cfg.TTL(), secure: cfg.Secure}
}

func (s *RedisStore) Add(c *fiber.Ctx, msg Message) error {
	ctx := c.UserContext()
	id := c.Cookies(s.cookieName)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			Secure:   s.secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := keyPrefix + id
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, string(payload))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write flash: %w", err)
	}
	return nil
}

// Pop reads and deletes the pending list in one MULTI so a concurrent Add is either
// returned now or kept for the next request.
func (s *RedisStore) Pop(c *fiber.Ctx) ([]Message, error) {
	id := c.Cookies(s.cookieName)
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	ctx := c.UserContext()
	key := keyPrefix + id
	var entries *redis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		entries = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pop flash: %w", err)
	}

	var messages []Message
	for _, raw := range entries.Val() {
		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

const pendingLocal = "flash.pending"

// CookieStore keeps messages in the cookie itself as base64 encoded JSON.
type CookieStore struct {
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewCookieStore constructs a CookieStore.
func NewCookieStore(cfg config.FlashConfig) *CookieStore {
	return &CookieStore{cookieName: cfg.CookieName, ttl: cfg.TTL(), secure: cfg.Secure}
}

func (s *CookieStore) Add(c *fiber.Ctx, msg Message) error {
	pending, _ := c.Locals(pendingLocal).([]Message)
	pending = append(pending, msg)
	c.Locals(pendingLocal, pending)

	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *CookieStore) Pop(c *fiber.Ctx) ([]Message, error) {
	value := c.Cookies(s.cookieName)
	if value == "" {
		return nil, nil
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Path:     "/",
		Expires:  fasthttp.CookieExpireDelete,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, nil
	}
	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, nil
	}
	return messages, nil
}
