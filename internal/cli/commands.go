package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/bank-statement-analyzer/internal/api"
	"github.com/insightdelivered/bank-statement-analyzer/internal/extractor"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Long: `Serve the analysis HTTP API.

Endpoints:
  GET  /api/health
  GET  /api/profiles
  POST /api/analyze   multipart form: file, bank, columns`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			h := &api.Handler{
				Engine:         a.engine,
				DefaultBank:    a.cfg.DefaultBank,
				MaxUploadBytes: a.cfg.MaxUploadBytes,
				Version:        Version,
				Log:            a.log,
			}
			server := h.NewApp()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("port", port).Msg("Starting API server")
				errCh <- server.Listen(":" + port)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info().Msg("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from ANALYZER_PORT or 8080)")
	return cmd
}

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured bank profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := a.engine.Catalog()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tCONCEPT\tAMOUNT\tSIGN INVERSION\tPREFIXES")
			for _, p := range catalog.Profiles() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%d\n",
					p.Key, p.Name, p.ConceptColumn, p.AmountColumn, p.SignInversion, len(p.TaxConceptPrefixes))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, c := range catalog.Categories() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nGroup %q: %s\n", c.Label, strings.Join(c.Keywords, ", "))
			}
			return nil
		},
	}
}

func newTokensCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tokens <statement.pdf>",
		Short: "Dump the positioned words of a PDF as JSON",
		Long: `Dump the positioned words of a PDF as JSON.

The dump can be edited and fed back to analyze as a .json statement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := extractor.ExtractTokens(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return extractor.WriteTokens(cmd.OutOrStdout(), pages)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file %q: %w", output, err)
			}
			defer f.Close()
			if err := extractor.WriteTokens(f, pages); err != nil {
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output JSON path (default stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bank-statement-analyzer v%s\n", Version)
		},
	}
}
