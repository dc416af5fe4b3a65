package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"

	"photosync/internal/logging"
)

// tokenFile is the on-disk token schema. It mirrors the OAuth token response
// shape so files written by earlier tooling remain readable: expires_at is
// epoch seconds.
type tokenFile struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type,omitempty"`
	Scope        string  `json:"scope,omitempty"`
	ExpiresAt    float64 `json:"expires_at,omitempty"`
}

// Store persists one account's OAuth token to a single file. It is the only
// writer of that file: Acquire takes an advisory lock that other processes
// honour, and Save goes through a temp file so a crash never leaves a
// half-written credential behind.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	mu sync.Mutex
}

// NewStore builds a Store for the token file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "tokenstore"),
	}
}

// Acquire takes the cross-process lock on the token file. It fails
// immediately when another photosync process holds the same account.
func (s *Store) Acquire() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire token lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("token file %s is locked by another process", s.path)
	}
	return nil
}

// Release drops the cross-process lock.
func (s *Store) Release() {
	_ = s.lock.Unlock()
}

// Load reads the persisted token. A missing, unreadable, or malformed file
// resolves to absent rather than an error; each condition is logged
// distinctly so the operator can tell why re-authorization was needed.
func (s *Store) Load() (*oauth2.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("no saved token file", logging.String("path", s.path))
		} else {
			s.logger.Warn("ignoring inaccessible token file",
				logging.String("path", s.path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "token_file_unreadable"),
			)
		}
		return nil, false
	}

	var file tokenFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.logger.Warn("ignoring badly formatted token file",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "token_file_malformed"),
			logging.String(logging.FieldErrorHint, "delete the file or re-run authorization for this account"),
		)
		return nil, false
	}
	if file.AccessToken == "" {
		s.logger.Warn("ignoring token file without access token",
			logging.String("path", s.path),
			logging.String(logging.FieldEventType, "token_file_malformed"),
			logging.String(logging.FieldErrorHint, "delete the file or re-run authorization for this account"),
		)
		return nil, false
	}

	token := &oauth2.Token{
		AccessToken:  file.AccessToken,
		RefreshToken: file.RefreshToken,
		TokenType:    file.TokenType,
	}
	if file.ExpiresAt > 0 {
		token.Expiry = time.Unix(int64(file.ExpiresAt), 0)
	}
	if file.Scope != "" {
		token = token.WithExtra(map[string]interface{}{"scope": file.Scope})
	}
	return token, true
}

// Save persists the token with owner-only permissions. The write goes to a
// temp file in the same directory followed by a rename.
func (s *Store) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("token is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := tokenFile{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if !token.Expiry.IsZero() {
		file.ExpiresAt = float64(token.Expiry.Unix())
	}
	if scope, ok := token.Extra("scope").(string); ok {
		file.Scope = scope
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("restrict token permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace token file: %w", err)
	}

	s.logger.Debug("token persisted", logging.String("path", s.path))
	return nil
}
