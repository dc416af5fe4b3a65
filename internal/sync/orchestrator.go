package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"photosync/internal/account"
	"photosync/internal/auth"
	"photosync/internal/config"
	"photosync/internal/library"
	"photosync/internal/logging"
	"photosync/internal/photos"
	"photosync/internal/reconcile"
	"photosync/internal/services"
)

// ClientFactory builds the authenticated API client for one account. The
// default wires auth.NewClient; tests substitute a plain transport.
type ClientFactory func(ctx context.Context, oauthCfg *oauth2.Config, token *oauth2.Token, store *auth.Store, logger *slog.Logger) photos.Getter

// StrategyFactory builds the local listing strategies for a library path,
// in the order they should be tried.
type StrategyFactory func(libraryPath string) []library.Strategy

// Options configures an Orchestrator beyond what the file configuration
// carries.
type Options struct {
	// BatchMode forbids interactive prompts; accounts without a stored
	// credential abort instead of asking.
	BatchMode bool
	// DryRun reports the download plan without downloading or importing.
	DryRun bool
	// In and Out carry the interactive authorization dialog. They default
	// to the process's stdin and stdout.
	In  io.Reader
	Out io.Writer
	// ClientFactory and StrategyFactory override construction (used in
	// tests).
	ClientFactory   ClientFactory
	StrategyFactory StrategyFactory
}

// Orchestrator walks each account through the sync pipeline and aggregates
// the outcomes. Accounts are fully independent: one account's failure never
// stops the rest.
type Orchestrator struct {
	cfg        *config.Config
	oauthCfg   *oauth2.Config
	accounts   *account.Store
	adapter    library.Adapter
	logger     *slog.Logger
	opts       Options
	clients    ClientFactory
	strategies StrategyFactory
}

// New builds an Orchestrator.
func New(cfg *config.Config, oauthCfg *oauth2.Config, accounts *account.Store, adapter library.Adapter, logger *slog.Logger, opts Options) *Orchestrator {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	o := &Orchestrator{
		cfg:      cfg,
		oauthCfg: oauthCfg,
		accounts: accounts,
		adapter:  adapter,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
		opts:     opts,
	}
	o.clients = opts.ClientFactory
	if o.clients == nil {
		o.clients = o.newClient
	}
	o.strategies = opts.StrategyFactory
	if o.strategies == nil {
		o.strategies = o.defaultStrategies
	}
	return o
}

func (o *Orchestrator) newClient(ctx context.Context, oauthCfg *oauth2.Config, token *oauth2.Token, store *auth.Store, logger *slog.Logger) photos.Getter {
	return auth.NewClient(ctx, oauthCfg, token, store, auth.ClientOptions{
		PageSize:   o.cfg.Sync.FetchSize,
		MaxRetries: o.cfg.Sync.MaxRetries,
		Timeout:    time.Duration(o.cfg.Workflow.RequestTimeoutSecond) * time.Second,
		Logger:     logger,
	})
}

func (o *Orchestrator) defaultStrategies(libraryPath string) []library.Strategy {
	return []library.Strategy{
		library.NewDatabaseStrategy(libraryPath),
		library.NewWalkStrategy(libraryPath),
		library.NewScriptStrategy(o.adapter, libraryPath,
			time.Duration(o.cfg.Workflow.ListTimeout)*time.Second),
	}
}

// Run synchronizes the requested accounts, or every configured account when
// requested is empty. The returned error covers run-level problems only;
// per-account failures land in the report.
func (o *Orchestrator) Run(ctx context.Context, requested []string) (Report, error) {
	report := Report{RunID: uuid.New().String()}
	logger := o.logger.With(logging.String(logging.FieldRunID, report.RunID))

	// An unusable library path fails the run before any account touches
	// the remote API; every account would hit the same wall after a full
	// remote enumeration otherwise.
	if err := o.checkLibrary(); err != nil {
		return report, err
	}

	accounts, err := o.accounts.Resolve(requested)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "resolve_accounts", "", "", err)
	}
	if len(accounts) == 0 {
		logger.Warn("no accounts configured, nothing to do")
		return report, nil
	}

	// First account to download a filename claims it for the whole run;
	// later accounts treat claimed names as already local.
	claimed := reconcile.NewIndex(o.cfg.Sync.CaseSensitive)

	for _, acct := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := o.syncAccount(ctx, acct, claimed, logger)
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func (o *Orchestrator) checkLibrary() error {
	libraryPath := o.cfg.Paths.LibraryDir
	info, err := os.Stat(libraryPath)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "preflight", "check_library",
			fmt.Sprintf("library path %s is not a directory", libraryPath), err)
	}
	return nil
}

func (o *Orchestrator) syncAccount(ctx context.Context, acct account.Account, claimed *reconcile.Index, logger *slog.Logger) AccountResult {
	result := AccountResult{Nickname: acct.Nickname, State: StateIdle}
	logger = logger.With(logging.String(logging.FieldAccount, acct.Nickname))

	abort := func(state State, err error) AccountResult {
		result.State = StateAborted
		result.Err = err
		logger.Error("account aborted",
			logging.String(logging.FieldStage, string(state)),
			logging.Error(err),
		)
		return result
	}
	enter := func(state State) {
		result.State = state
		logger.Info("stage", logging.String(logging.FieldStage, string(state)))
	}

	enter(StateAuthenticating)
	store := auth.NewStore(acct.TokenPath(), logger)
	if err := store.Acquire(); err != nil {
		return abort(StateAuthenticating,
			services.Wrap(services.ErrAuthorization, "authenticating", "acquire_lock", "", err))
	}
	defer store.Release()

	token, ok := store.Load()
	if !ok {
		if o.opts.BatchMode {
			return abort(StateAuthenticating, services.Wrap(services.ErrAuthorization,
				"authenticating", "load_token", "no stored credential and prompts are disabled", nil))
		}
		var err error
		token, err = auth.Authorize(ctx, o.oauthCfg, store, acct.Nickname, o.opts.In, o.opts.Out)
		if err != nil {
			return abort(StateAuthenticating,
				services.Wrap(services.ErrAuthorization, "authenticating", "authorize", "", err))
		}
	}
	client := o.clients(ctx, o.oauthCfg, token, store, logger)

	enter(StateListingRemote)
	remote, err := photos.FetchAll(ctx, client, o.cfg.Google.APIBaseURL, logger)
	if err != nil {
		return abort(StateListingRemote, err)
	}
	result.Remote = remote.Len()

	enter(StateListingLocal)
	localNames, strategy, err := library.ListFilenames(ctx, o.strategies(o.cfg.Paths.LibraryDir), logger)
	if err != nil {
		return abort(StateListingLocal, err)
	}
	result.Strategy = strategy
	result.Local = len(localNames)

	enter(StateReconciling)
	local := reconcile.NewIndex(o.cfg.Sync.CaseSensitive)
	local.AddAll(localNames)
	local.Merge(claimed)
	plan := reconcile.Plan(remote, local, o.cfg.Sync.MaxDownloads, logger)
	result.Planned = len(plan)

	if o.opts.DryRun {
		fmt.Fprintf(o.opts.Out, "%s: would download %d file(s)\n", acct.Nickname, len(plan))
		for _, item := range plan {
			fmt.Fprintf(o.opts.Out, "  %s (%s)\n", item.Filename, item.MimeType)
		}
		result.State = StateDone
		return result
	}

	// An empty plan skips downloading and importing outright so the
	// application never sees a spurious import trigger.
	if len(plan) > 0 {
		enter(StateDownloading)
		if err := acct.ResetStaging(); err != nil {
			return abort(StateDownloading,
				services.Wrap(nil, "downloading", "reset_staging", "", err))
		}
		for _, item := range plan {
			if ctx.Err() != nil {
				break
			}
			if photos.Download(ctx, client, item, acct.StagingDir(), logger) {
				result.Downloaded++
				claimed.Add(item.Filename)
			} else {
				result.Failed++
			}
		}

		if result.Downloaded > 0 {
			enter(StateImporting)
			result.Imported = library.ImportAndWait(ctx, o.adapter, acct.StagingDir(),
				o.cfg.Paths.LibraryDir,
				time.Duration(o.cfg.Workflow.ImportTimeout)*time.Second, logger)
		}
	}

	enter(StateCleaningUp)
	if o.cfg.Sync.KeepDownloads {
		logger.Info("keeping staged downloads", logging.String("staging_dir", acct.StagingDir()))
	} else if err := acct.RemoveStaging(); err != nil {
		logger.Warn("could not remove staging directory", logging.Error(err))
	}

	result.State = StateDone
	logger.Info("account synchronized",
		logging.Int("remote", result.Remote),
		logging.Int("local", result.Local),
		logging.Int("downloaded", result.Downloaded),
		logging.Int("failed", result.Failed),
		logging.Bool("imported", result.Imported),
	)
	return result
}
