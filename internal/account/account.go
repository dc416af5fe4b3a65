// Package account manages the per-account cache layout: one directory per
// nickname under the cache root, each holding the account's OAuth token file
// and a transient staging directory for downloaded media.
package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photosync/internal/services"
)

const (
	tokenFileName  = "access_token.json"
	stagingDirName = "photos"
)

// Account identifies one configured remote-photo-service identity and its
// cache locations. The nickname is local bookkeeping only and is never sent
// to the remote service.
type Account struct {
	Nickname string
	CacheDir string
}

// TokenPath returns the location of the account's persisted OAuth token.
func (a Account) TokenPath() string {
	return filepath.Join(a.CacheDir, tokenFileName)
}

// StagingDir returns the account's transient download staging directory.
func (a Account) StagingDir() string {
	return filepath.Join(a.CacheDir, stagingDirName)
}

// Store manages account cache directories under a single users root.
type Store struct {
	usersDir string
}

// NewStore builds a Store rooted at the provided users directory.
func NewStore(usersDir string) *Store {
	return &Store{usersDir: usersDir}
}

// Add creates the cache directory for a new account. Adding an existing
// nickname is a no-op, matching the idempotent add semantics of the CLI.
func (s *Store) Add(nickname string) (Account, error) {
	acct, err := s.account(nickname)
	if err != nil {
		return Account{}, err
	}
	if err := os.MkdirAll(acct.CacheDir, 0o755); err != nil {
		return Account{}, fmt.Errorf("create account cache: %w", err)
	}
	return acct, nil
}

// Remove deletes the account's cache directory, including any stored token
// and staged downloads.
func (s *Store) Remove(nickname string) error {
	acct, err := s.account(nickname)
	if err != nil {
		return err
	}
	if _, err := os.Stat(acct.CacheDir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("account %q: %w", nickname, services.ErrNotFound)
	}
	if err := os.RemoveAll(acct.CacheDir); err != nil {
		return fmt.Errorf("remove account cache: %w", err)
	}
	return nil
}

// List returns all configured accounts in nickname order.
func (s *Store) List() ([]Account, error) {
	entries, err := os.ReadDir(s.usersDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read users directory: %w", err)
	}

	accounts := make([]Account, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		acct, err := s.account(entry.Name())
		if err != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Nickname < accounts[j].Nickname })
	return accounts, nil
}

// Resolve returns the accounts to process. With no requested nicknames every
// configured account is returned; otherwise only requested nicknames that
// have been added before are returned, in request order.
func (s *Store) Resolve(requested []string) ([]Account, error) {
	if len(requested) == 0 {
		return s.List()
	}

	accounts := make([]Account, 0, len(requested))
	for _, nickname := range requested {
		acct, err := s.account(nickname)
		if err != nil {
			return nil, err
		}
		if _, statErr := os.Stat(acct.CacheDir); statErr != nil {
			continue
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// ResetStaging empties and recreates the account's staging directory.
func (a Account) ResetStaging() error {
	staging := a.StagingDir()
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging: %w", err)
	}
	return nil
}

// RemoveStaging deletes the account's staging directory.
func (a Account) RemoveStaging() error {
	if err := os.RemoveAll(a.StagingDir()); err != nil {
		return fmt.Errorf("remove staging: %w", err)
	}
	return nil
}

func (s *Store) account(nickname string) (Account, error) {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return Account{}, errors.New("account nickname is empty")
	}
	if trimmed != filepath.Base(trimmed) || trimmed == "." || trimmed == ".." {
		return Account{}, fmt.Errorf("invalid account nickname %q", nickname)
	}
	return Account{
		Nickname: trimmed,
		CacheDir: filepath.Join(s.usersDir, trimmed),
	}, nil
}
