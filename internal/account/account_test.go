package account_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"photosync/internal/account"
	"photosync/internal/services"
)

func TestAddListRemove(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))

	for _, nickname := range []string{"bob", "alice"} {
		if _, err := store.Add(nickname); err != nil {
			t.Fatalf("Add(%q) returned error: %v", nickname, err)
		}
	}
	// Adding again is a no-op.
	if _, err := store.Add("alice"); err != nil {
		t.Fatalf("re-Add returned error: %v", err)
	}

	accounts, err := store.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].Nickname != "alice" || accounts[1].Nickname != "bob" {
		t.Fatalf("unexpected accounts: %#v", accounts)
	}

	if err := store.Remove("bob"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	accounts, err = store.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Nickname != "alice" {
		t.Fatalf("unexpected accounts after remove: %#v", accounts)
	}
}

func TestRemoveWipesCacheTree(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))
	acct, err := store.Add("alice")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := acct.ResetStaging(); err != nil {
		t.Fatalf("ResetStaging returned error: %v", err)
	}
	if err := os.WriteFile(acct.TokenPath(), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	if err := os.WriteFile(filepath.Join(acct.StagingDir(), "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write staged file: %v", err)
	}

	if err := store.Remove("alice"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(acct.CacheDir); !os.IsNotExist(err) {
		t.Fatal("expected account cache to be removed entirely")
	}
}

func TestRemoveUnknownAccount(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))
	err := store.Remove("ghost")
	if err == nil {
		t.Fatal("expected error removing unknown account")
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error %v should classify as not found", err)
	}
}

func TestResolveFiltersUnknownNicknames(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))
	if _, err := store.Add("alice"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	accounts, err := store.Resolve([]string{"alice", "ghost"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Nickname != "alice" {
		t.Fatalf("unexpected resolved accounts: %#v", accounts)
	}

	all, err := store.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve(nil) returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected all accounts, got %#v", all)
	}
}

func TestInvalidNicknameRejected(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))
	for _, bad := range []string{"", " ", "../escape", "a/b"} {
		if _, err := store.Add(bad); err == nil {
			t.Errorf("expected error for nickname %q", bad)
		}
	}
}

func TestResetStagingEmptiesDirectory(t *testing.T) {
	store := account.NewStore(filepath.Join(t.TempDir(), "users"))
	acct, err := store.Add("alice")
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := acct.ResetStaging(); err != nil {
		t.Fatalf("ResetStaging returned error: %v", err)
	}
	stale := filepath.Join(acct.StagingDir(), "stale.jpg")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	if err := acct.ResetStaging(); err != nil {
		t.Fatalf("second ResetStaging returned error: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected staging to be emptied")
	}
	if info, err := os.Stat(acct.StagingDir()); err != nil || !info.IsDir() {
		t.Fatalf("expected staging dir to exist: %v", err)
	}
}
