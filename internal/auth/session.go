package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"offsetmarket-buyer-go/internal/models"

	"go.uber.org/zap"
)

// Session is the persistent auth session: the bearer token, the user object
// and the role/permission lists issued at login, stored on disk under the
// same four fixed keys the marketplace uses (token, user, roles,
// permissions). Logout removes everything at once.
//
// Session is passed explicitly to whatever issues authenticated calls; it is
// never a package global.
type Session struct {
	path string
}

type sessionData struct {
	Token       string          `json:"token"`
	User        json.RawMessage `json:"user"`
	Roles       []string        `json:"roles"`
	Permissions []string        `json:"permissions"`
}

func NewSession(cfg models.SessionConfig) (*Session, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("session path cannot be empty")
	}
	return &Session{path: cfg.Path}, nil
}

// Save persists the full session atomically. Any previous session is
// replaced wholesale.
func (s *Session) Save(token string, user json.RawMessage, roles, permissions []string) error {
	if token == "" {
		return fmt.Errorf("cannot save session without a token")
	}

	data := sessionData{
		Token:       token,
		User:        user,
		Roles:       roles,
		Permissions: permissions,
	}
	raw, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("unable to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("unable to replace session file: %w", err)
	}

	zap.L().Info("Session saved", zap.String("path", s.path), zap.Strings("roles", roles))
	return nil
}

func (s *Session) load() (*sessionData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	return &data, nil
}

// Token returns the stored bearer token, if any.
func (s *Session) Token() (string, bool) {
	data, err := s.load()
	if err != nil || data.Token == "" {
		return "", false
	}
	return data.Token, true
}

// IsAuthenticated reports whether a token is stored. It does not check
// expiry; an expired token simply fails server-side on the next call.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// User returns the stored user object verbatim.
func (s *Session) User() (json.RawMessage, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.User, nil
}

func (s *Session) Roles() ([]string, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Roles, nil
}

func (s *Session) Permissions() ([]string, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Permissions, nil
}

// Clear removes the session entirely (logout). Clearing an absent session is
// not an error.
func (s *Session) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to clear session: %w", err)
	}
	if err == nil {
		zap.L().Info("Session cleared", zap.String("path", filepath.Clean(s.path)))
	}
	return nil
}
