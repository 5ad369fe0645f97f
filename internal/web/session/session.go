// Package session keeps login sessions behind an opaque cookie.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tenantdesk/tenantdesk/internal/config"
)

const defaultCookieName = "session"

var (
	// ErrNoSession is returned when the request carries no valid session.
	ErrNoSession = errors.New("no valid session")
	// ErrStorageNil is returned when the store is created without storage.
	ErrStorageNil = errors.New("session storage is nil")
)

// Storage is the key value backend of the store. The gofiber storage drivers implement it.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Close() error
}

// Data represents the session data structure.
type Data struct {
	UserID    uint64    `json:"userId"`
	TenantID  uint      `json:"tenantId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store creates, reads and destroys sessions.
type Store struct {
	storage    Storage
	expiry     time.Duration
	cookieName string
	secure     bool
}

// New creates a Store. Cookies are marked secure unless devMode is set.
func New(storage Storage, cfg config.Session, devMode bool) (*Store, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	s := &Store{
		storage:    storage,
		expiry:     cfg.ExpiryTime,
		cookieName: cfg.CookieName,
		secure:     cfg.CookieSecure || !devMode,
	}

	if s.cookieName == "" {
		s.cookieName = defaultCookieName
	}

	return s, nil
}

// CookieName returns the name of the session cookie.
func (s *Store) CookieName() string {
	return s.cookieName
}

// Create stores data under a new session ID and sets the cookie.
func (s *Store) Create(c fiber.Ctx, data Data) (string, error) {
	id := uuid.NewString()

	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}

	out, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.storage.Set(id, out, s.expiry); err != nil {
		return "", fmt.Errorf("failed to write session: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    id,
		MaxAge:   int(s.expiry.Seconds()),
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return id, nil
}

// Read returns the session of the request.
func (s *Store) Read(c fiber.Ctx) (*Data, error) {
	id := c.Cookies(s.cookieName)
	if id == "" {
		return nil, ErrNoSession
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNoSession
	}

	raw, err := s.storage.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if len(raw) == 0 {
		return nil, ErrNoSession
	}

	data := new(Data)
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if data.UserID == 0 {
		return nil, ErrNoSession
	}

	return data, nil
}

// Destroy deletes the session of the request and clears the cookie.
func (s *Store) Destroy(c fiber.Ctx) error {
	var err error

	if id := c.Cookies(s.cookieName); id != "" {
		err = s.storage.Delete(id)
	}

	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return err
}

// Close releases the storage.
func (s *Store) Close() error {
	return s.storage.Close()
}
