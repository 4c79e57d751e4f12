package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/careai/careai/internal/api"
	"github.com/careai/careai/internal/contract"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve triage and assessments over HTTP",
	Long: `Start an HTTP server exposing the configured dataset as JSON.

Routes:
  GET /healthz
  GET /patients
  GET /patients/{id}/assessment
  GET /triage?limit=N&min_records=N

Examples:
  careai serve --data patients.csv --listen 127.0.0.1:8080`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.NewServer(cfg, cacheManager).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", contract.DefaultListen, "Address for the HTTP API to listen on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}
}
