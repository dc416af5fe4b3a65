package sync_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"photosync/internal/account"
	"photosync/internal/auth"
	"photosync/internal/config"
	"photosync/internal/library"
	"photosync/internal/logging"
	"photosync/internal/photos"
	"photosync/internal/services"
	"photosync/internal/sync"
)

// plainGetter bypasses OAuth for pipeline tests.
type plainGetter struct{}

func (plainGetter) Get(ctx context.Context, rawURL string, params url.Values) (*http.Response, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

func (g plainGetter) Download(ctx context.Context, rawURL string) (*http.Response, error) {
	return g.Get(ctx, rawURL, nil)
}

type recordingAdapter struct {
	imports []string
}

func (a *recordingAdapter) ListFilenames(ctx context.Context, libraryPath string) ([]string, error) {
	return nil, errors.New("not used")
}

func (a *recordingAdapter) Import(ctx context.Context, stagingDir, libraryPath string) error {
	a.imports = append(a.imports, stagingDir)
	return nil
}

type fixedStrategy struct {
	names []string
	err   error
}

func (s fixedStrategy) Name() string { return "fixed" }

func (s fixedStrategy) List(context.Context) ([]string, error) { return s.names, s.err }

// newPhotosServer serves a one-page listing of the named items; their
// download URLs point back at the same server.
func newPhotosServer(t *testing.T, items []photos.Item) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mediaItems", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"mediaItems":[`)
		for i, item := range items {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			baseURL := fmt.Sprintf("http://%s/media/%s", r.Host, item.Filename)
			fmt.Fprintf(w, `{"filename":%q,"mimeType":%q,"baseUrl":%q}`,
				item.Filename, item.MimeType, baseURL)
		}
		fmt.Fprint(w, `]}`)
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("media-bytes"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type fixture struct {
	cfg      *config.Config
	accounts *account.Store
	adapter  *recordingAdapter
	out      *bytes.Buffer
}

func newFixture(t *testing.T, apiBaseURL string) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.CacheDir = root
	cfg.Paths.LibraryDir = filepath.Join(root, "library")
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Google.APIBaseURL = apiBaseURL
	cfg.Sync.MaxDownloads = -1
	cfg.Workflow.ImportTimeout = 5
	return &fixture{
		cfg:      cfg,
		accounts: account.NewStore(cfg.UsersDir()),
		adapter:  &recordingAdapter{},
		out:      &bytes.Buffer{},
	}
}

func (f *fixture) addAccount(t *testing.T, nickname string, withToken bool) account.Account {
	t.Helper()
	acct, err := f.accounts.Add(nickname)
	if err != nil {
		t.Fatal(err)
	}
	if withToken {
		store := auth.NewStore(acct.TokenPath(), logging.NewNop())
		token := &oauth2.Token{
			AccessToken:  "stored-token",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}
		if err := store.Save(token); err != nil {
			t.Fatal(err)
		}
	}
	return acct
}

func (f *fixture) orchestrator(localNames []string, opts sync.Options) *sync.Orchestrator {
	opts.Out = f.out
	opts.ClientFactory = func(context.Context, *oauth2.Config, *oauth2.Token, *auth.Store, *slog.Logger) photos.Getter {
		return plainGetter{}
	}
	if opts.StrategyFactory == nil {
		opts.StrategyFactory = func(string) []library.Strategy {
			return []library.Strategy{fixedStrategy{names: localNames}}
		}
	}
	return sync.New(f.cfg, &oauth2.Config{}, f.accounts, f.adapter, logging.NewNop(), opts)
}

func TestRunDownloadsMissingAndImports(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
		{Filename: "B.mp4", MimeType: "video/mp4"},
	})
	f := newFixture(t, server.URL)
	acct := f.addAccount(t, "alice", true)

	report, err := f.orchestrator([]string{"A.jpg"}, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Failed() {
		t.Fatalf("report failed: %+v", report.Results)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results = %+v", report.Results)
	}

	result := report.Results[0]
	if result.State != sync.StateDone || result.Remote != 2 || result.Planned != 1 || result.Downloaded != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !result.Imported {
		t.Fatal("expected an import to have completed")
	}
	if len(f.adapter.imports) != 1 || f.adapter.imports[0] != acct.StagingDir() {
		t.Fatalf("imports = %v", f.adapter.imports)
	}
	// Staging is removed after import by default.
	if _, err := os.Stat(acct.StagingDir()); !os.IsNotExist(err) {
		t.Fatal("staging directory should be removed after cleanup")
	}
}

func TestRunEmptyPlanSkipsImport(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	f.addAccount(t, "alice", true)

	report, err := f.orchestrator([]string{"A.jpg"}, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	result := report.Results[0]
	if result.State != sync.StateDone || result.Planned != 0 || result.Downloaded != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(f.adapter.imports) != 0 {
		t.Fatalf("empty plan must not trigger an import, got %v", f.adapter.imports)
	}
}

func TestRunBatchModeAbortsAccountWithoutCredential(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	f.addAccount(t, "alice", false)
	f.addAccount(t, "bob", true)

	report, err := f.orchestrator(nil, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %+v", report.Results)
	}
	if report.Results[0].State != sync.StateAborted {
		t.Fatalf("alice = %+v, want aborted", report.Results[0])
	}
	if report.Results[1].State != sync.StateDone {
		t.Fatalf("bob = %+v, want done despite alice aborting", report.Results[1])
	}
	if !report.Failed() {
		t.Fatal("report with an aborted account must count as failed")
	}
}

func TestRunAbortsWhenEveryListingStrategyFails(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	f.addAccount(t, "alice", true)

	opts := sync.Options{
		BatchMode: true,
		StrategyFactory: func(string) []library.Strategy {
			return []library.Strategy{fixedStrategy{err: errors.New("boom")}}
		},
	}
	report, err := f.orchestrator(nil, opts).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Results[0].State != sync.StateAborted {
		t.Fatalf("result = %+v, want aborted", report.Results[0])
	}
}

func TestRunDryRunDownloadsNothing(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	acct := f.addAccount(t, "alice", true)

	report, err := f.orchestrator(nil, sync.Options{BatchMode: true, DryRun: true}).
		Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	result := report.Results[0]
	if result.State != sync.StateDone || result.Planned != 1 || result.Downloaded != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(f.adapter.imports) != 0 {
		t.Fatal("dry run must not import")
	}
	if _, err := os.Stat(filepath.Join(acct.StagingDir(), "A.jpg")); !os.IsNotExist(err) {
		t.Fatal("dry run must not download")
	}
	if !strings.Contains(f.out.String(), "A.jpg") {
		t.Fatalf("dry run output should list planned files, got %q", f.out.String())
	}
}

func TestRunFirstAccountClaimsSharedFilename(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "shared.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	f.addAccount(t, "alice", true)
	f.addAccount(t, "bob", true)

	report, err := f.orchestrator(nil, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Results[0].Downloaded != 1 {
		t.Fatalf("alice = %+v, want 1 download", report.Results[0])
	}
	if report.Results[1].Downloaded != 0 || report.Results[1].Planned != 0 {
		t.Fatalf("bob = %+v, want claimed filename skipped", report.Results[1])
	}
	if len(f.adapter.imports) != 1 {
		t.Fatalf("imports = %v, want exactly one", f.adapter.imports)
	}
}

func TestRunUnusableLibraryPathFailsBeforeAnyAccount(t *testing.T) {
	var apiHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiHits, 1)
		fmt.Fprint(w, `{"mediaItems":[]}`)
	}))
	t.Cleanup(server.Close)

	f := newFixture(t, server.URL)
	f.addAccount(t, "alice", true)
	f.addAccount(t, "bob", true)
	f.cfg.Paths.LibraryDir = filepath.Join(f.cfg.Paths.CacheDir, "no-such-library")

	report, err := f.orchestrator(nil, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected a run-level error for a missing library path")
	}
	if !services.IsFatal(err) {
		t.Fatalf("error %v should classify as fatal configuration", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("no account should have been processed, got %+v", report.Results)
	}
	if hits := atomic.LoadInt32(&apiHits); hits != 0 {
		t.Fatalf("remote API was hit %d time(s) before the run failed", hits)
	}
}

func TestRunLibraryPathMustBeDirectory(t *testing.T) {
	server := newPhotosServer(t, nil)
	f := newFixture(t, server.URL)
	filePath := filepath.Join(f.cfg.Paths.CacheDir, "library-file")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.cfg.Paths.LibraryDir = filePath

	_, err := f.orchestrator(nil, sync.Options{BatchMode: true}).
		Run(context.Background(), nil)
	if !services.IsFatal(err) {
		t.Fatalf("error %v should classify as fatal configuration", err)
	}
}

func TestRunKeepDownloadsRetainsStaging(t *testing.T) {
	server := newPhotosServer(t, []photos.Item{
		{Filename: "A.jpg", MimeType: "image/jpeg"},
	})
	f := newFixture(t, server.URL)
	f.cfg.Sync.KeepDownloads = true
	acct := f.addAccount(t, "alice", true)

	if _, err := f.orchestrator(nil, sync.Options{BatchMode: true}).
		Run(context.Background(), nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(acct.StagingDir(), "A.jpg")); err != nil {
		t.Fatalf("expected staged file to be retained: %v", err)
	}
}
