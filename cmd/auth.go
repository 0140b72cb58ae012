package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Obtain and persist Google credentials",
		Long: `Make sure a usable Google credential is stored in the token file.

A valid stored token is kept, an expired one is refreshed, and otherwise your
browser is sent to Google's consent page. The client secret is read from
--credentials-file, or from --google-client-id and --google-client-secret.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			provider, err := newInstrumentation(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = provider.Shutdown(context.Background()) }()

			store := newCredentialStore(cfg, provider.Metrics(), slog.Default())
			tok, err := store.Obtain(ctx)
			if err != nil {
				return fmt.Errorf("failed to obtain Google credentials: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated. Token stored in %s (expires %s)\n",
				cfg.TokenFile, tok.Expiry.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}
