package cli

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nerva/backend/internal/api"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if port != "" {
				cfg.Port = port
			}
			if dir := filepath.Dir(cfg.DBPath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}

			server, err := api.NewServer(api.ConfigFrom(cfg))
			if err != nil {
				return err
			}
			defer server.Close()

			router, err := server.Router()
			if err != nil {
				return err
			}
			logrus.Infof("starting nerva backend on :%s", cfg.Port)
			return router.Run(":" + cfg.Port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides config)")
	return cmd
}
