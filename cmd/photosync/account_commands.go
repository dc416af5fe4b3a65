package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photosync/internal/auth"
)

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage configured accounts",
	}

	accountCmd.AddCommand(newAccountAddCommand(ctx))
	accountCmd.AddCommand(newAccountRemoveCommand(ctx))
	accountCmd.AddCommand(newAccountListCommand(ctx))

	return accountCmd
}

func newAccountAddCommand(ctx *commandContext) *cobra.Command {
	var deferAuth bool
	var credentials string

	cmd := &cobra.Command{
		Use:   "add <nickname>",
		Short: "Register an account and authorize access to its photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nickname := args[0]
			acct, err := ctx.accountStore().Add(nickname)
			if err != nil {
				return fmt.Errorf("add account: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account %s registered (cache: %s)\n", acct.Nickname, acct.CacheDir)

			if deferAuth {
				fmt.Fprintln(out, "Authorization deferred; the first sync will prompt for it.")
				return nil
			}

			cfg := ctx.configValue()
			oauthCfg, err := auth.LoadOAuthConfig(cfg, credentials)
			if err != nil {
				return err
			}
			store := auth.NewStore(acct.TokenPath(), ctx.ensureLogger())
			if err := store.Acquire(); err != nil {
				return fmt.Errorf("lock token store: %w", err)
			}
			defer store.Release()
			if _, err := auth.Authorize(cmd.Context(), oauthCfg, store, acct.Nickname, cmd.InOrStdin(), out); err != nil {
				return fmt.Errorf("authorize %s: %w", acct.Nickname, err)
			}
			fmt.Fprintf(out, "Account %s authorized\n", acct.Nickname)
			return nil
		},
	}

	cmd.Flags().BoolVar(&deferAuth, "defer-auth", false, "Register without running the authorization flow")
	cmd.Flags().StringVar(&credentials, "credentials", "", "OAuth client credentials file")
	return cmd
}

func newAccountRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <nickname>",
		Short: "Remove an account and wipe its cached credential and staging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nickname := args[0]
			if err := ctx.accountStore().Remove(nickname); err != nil {
				return fmt.Errorf("remove account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s removed\n", nickname)
			return nil
		},
	}
}

func newAccountListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := ctx.accountStore().List()
			if err != nil {
				return fmt.Errorf("list accounts: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, "No accounts configured. Add one with `photosync account add <nickname>`.")
				return nil
			}
			rows := make([][]string, 0, len(accounts))
			for _, acct := range accounts {
				rows = append(rows, []string{acct.Nickname, acct.CacheDir})
			}
			fmt.Fprintln(out, renderTable([]string{"Account", "Cache"}, rows, nil))
			return nil
		},
	}
}
