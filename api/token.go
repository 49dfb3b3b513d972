package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrNoToken is returned when no access token has been stored yet.
var ErrNoToken = errors.New("api: no access token; log in first")

// ErrTokenExpired is returned when the stored access token has expired.
// Refreshing it belongs to the login flow.
var ErrTokenExpired = errors.New("api: access token expired; log in again")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Token is an OAuth access token as written by the login flow.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore yields the current access token.
type TokenStore interface {
	Token(ctx context.Context) (Token, error)
}

// StaticTokenStore always returns the same token.
type StaticTokenStore Token

func (s StaticTokenStore) Token(context.Context) (Token, error) {
	if s.AccessToken == "" {
		return Token{}, ErrNoToken
	}
	return Token(s), nil
}

// FileTokenStore reads a JSON token file, re-reading it when it changes on
// disk so a concurrent login is picked up.
type FileTokenStore struct {
	Path string

	mu      sync.Mutex
	modTime time.Time
	token   Token
}

func (s *FileTokenStore) Token(context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Token{}, ErrNoToken
	}
	if err != nil {
		return Token{}, fmt.Errorf("api: token file: %w", err)
	}
	if info.ModTime().Equal(s.modTime) && s.token.AccessToken != "" {
		return s.token, nil
	}

	b, err := os.ReadFile(s.Path)
	if err != nil {
		return Token{}, fmt.Errorf("api: token file: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return Token{}, fmt.Errorf("api: token file %s: %w", s.Path, err)
	}
	if tok.AccessToken == "" {
		return Token{}, ErrNoToken
	}
	s.token, s.modTime = tok, info.ModTime()
	return tok, nil
}
