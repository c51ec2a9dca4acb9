package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SiteForge/internal/app"
	"SiteForge/internal/config"
	"SiteForge/internal/logging"
	"SiteForge/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:          "siteforge",
	Short:        "Page synthesis, save-time enhancement and live editing rooms",
	SilenceUsage: true,
}

var synthReq usecase.SynthesisRequest

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	synthCmd.Flags().StringVar(&synthReq.Site, "site", "", "site identifier")
	synthCmd.Flags().StringVar(&synthReq.PageName, "page", "", "page name")
	synthCmd.Flags().StringVar(&synthReq.Template, "template", "Homepage", "template name")
	synthCmd.Flags().StringVar(&synthReq.BusinessName, "business", "", "business name")
	synthCmd.Flags().StringVar(&synthReq.Industry, "industry", "", "industry profile")
	synthCmd.Flags().StringVar(&synthReq.BrandContext, "brand", "", "free-text brand context")
	_ = synthCmd.MarkFlagRequired("site")
	_ = synthCmd.MarkFlagRequired("page")

	rootCmd.AddCommand(serveCmd, synthCmd, templatesCmd)
}

func newApp(ctx context.Context) (*app.Application, error) {
	cfg := config.Load()
	return app.New(ctx, cfg, logging.New(cfg.Logging))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and collaboration rooms",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize one draft page and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		application, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.Synthesizer().Synthesize(ctx, synthReq)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the registered page templates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		registry, err := app.LoadTemplates(cfg)
		if err != nil {
			return err
		}
		for _, name := range registry.Names() {
			tmpl, _ := registry.Resolve(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %v\n", tmpl.Name, tmpl.Sections)
		}
		return nil
	},
}
