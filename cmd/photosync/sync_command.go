package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photosync/internal/auth"
	"photosync/internal/config"
	"photosync/internal/library"
	"photosync/internal/logging"
	"photosync/internal/sync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		batchMode     bool
		dryRun        bool
		keepDownloads bool
		caseSensitive bool
		maxDownloads  int
		fetchSize     int
		maxRetries    int
		libraryPath   string
		credentials   string
	)

	cmd := &cobra.Command{
		Use:   "sync [nickname...]",
		Short: "Download new media for the named accounts (default: all accounts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applySyncFlags(cfg, cmd, keepDownloads, caseSensitive, maxDownloads, fetchSize, maxRetries, libraryPath)

			logger := ctx.ensureLogger()
			oauthCfg, err := auth.LoadOAuthConfig(cfg, credentials)
			if err != nil {
				return err
			}

			adapter := library.NewScriptAdapter(pollInterval(cfg), logger)
			orchestrator := sync.New(cfg, oauthCfg, ctx.accountStore(), adapter, logger, sync.Options{
				BatchMode: batchMode,
				DryRun:    dryRun,
				In:        cmd.InOrStdin(),
				Out:       cmd.OutOrStdout(),
			})

			report, err := orchestrator.Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderReport(report))
			logger.Info("run finished",
				logging.String(logging.FieldRunID, report.RunID),
				logging.Int("accounts", len(report.Results)),
			)
			if report.Failed() {
				return fmt.Errorf("run %s: one or more accounts did not complete", report.RunID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&batchMode, "batch-mode", false, "Never prompt; accounts without a stored credential are skipped")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be downloaded without downloading")
	cmd.Flags().BoolVar(&keepDownloads, "keep-downloads", false, "Retain the staging directory after import")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Match filenames case-sensitively")
	cmd.Flags().IntVar(&maxDownloads, "max-downloads", -1, "Cap downloads per account (-1 for unlimited)")
	cmd.Flags().IntVar(&fetchSize, "fetch-size", 0, "Remote listing page size")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retry attempts for transient server errors")
	cmd.Flags().StringVar(&libraryPath, "library", "", "Photo library path override")
	cmd.Flags().StringVar(&credentials, "credentials", "", "OAuth client credentials file")

	return cmd
}

// applySyncFlags folds command-line overrides into the loaded configuration.
// Only flags the user actually set win over the file.
func applySyncFlags(cfg *config.Config, cmd *cobra.Command, keepDownloads, caseSensitive bool, maxDownloads, fetchSize, maxRetries int, libraryPath string) {
	flags := cmd.Flags()
	if flags.Changed("keep-downloads") {
		cfg.Sync.KeepDownloads = keepDownloads
	}
	if flags.Changed("case-sensitive") {
		cfg.Sync.CaseSensitive = caseSensitive
	}
	if flags.Changed("max-downloads") {
		cfg.Sync.MaxDownloads = maxDownloads
	}
	if flags.Changed("fetch-size") {
		cfg.Sync.FetchSize = fetchSize
	}
	if flags.Changed("max-retries") {
		cfg.Sync.MaxRetries = maxRetries
	}
	if libraryPath != "" {
		if expanded, err := config.ExpandPath(libraryPath); err == nil {
			cfg.Paths.LibraryDir = expanded
		}
	}
}

func renderReport(report sync.Report) string {
	headers := []string{"Account", "State", "Strategy", "Remote", "Local", "Planned", "Downloaded", "Failed", "Imported"}
	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		rows = append(rows, []string{
			result.Nickname,
			string(result.State),
			result.Strategy,
			strconv.Itoa(result.Remote),
			strconv.Itoa(result.Local),
			strconv.Itoa(result.Planned),
			strconv.Itoa(result.Downloaded),
			strconv.Itoa(result.Failed),
			yesNo(result.Imported),
		})
	}
	aligns := []columnAlignment{
		alignLeft, alignLeft, alignLeft,
		alignRight, alignRight, alignRight, alignRight, alignRight,
		alignLeft,
	}
	return renderTable(headers, rows, aligns)
}

func pollInterval(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Workflow.PollInterval) * time.Second
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
