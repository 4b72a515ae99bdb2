package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/clicktrail/internal/config"
	"github.com/fakeyudi/clicktrail/internal/control"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <url>",
	Short: "Open a page and control recording over HTTP",
	Long: `Open <url> in Chrome and expose the recording lifecycle over HTTP:

  GET  /healthz
  GET  /status
  POST /start
  POST /stop
  POST /export?format=pdf|json|markdown

Changes to .clicktrailconfig are applied without a restart.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := GetConfig()
		if cmd.Flags().Changed("addr") {
			c.ListenAddr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, args[0], c, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		go func() {
			err := config.Watch(ctx, config.ProjectFile, func(next config.Config) {
				next.ListenAddr = c.ListenAddr
				s.ctl.Apply(next)
			}, func(err error) {
				logger.Warn("config reload failed", "err", err)
			})
			if err != nil {
				logger.Warn("config watch disabled", "err", err)
			}
		}()

		// Stop serving if the browser goes away.
		go func() {
			select {
			case <-s.page.Done():
				logger.Info("browser closed")
				stop()
			case <-ctx.Done():
			}
		}()

		return control.NewServer(s.ctl, c.ListenAddr, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "listen address")
	rootCmd.AddCommand(serveCmd)
}
