package cli

import (
	"os"

	"github.com/spf13/cobra"

	"nerva/backend/internal/config"
)

type rootOptions struct {
	configPath string
	cfg        config.Config
}

// NewRootCommand builds the nerva command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "nerva",
		Short: "Decision integrity layer: map dialectic scores onto the decision sphere",
		Long: "Converts a confidence/risk score pair into a point on the unit sphere and\n" +
			"classifies the integrity score as ALIGNED or SUB_OPTIMAL.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Log.Apply(); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config (default $NERVA_CONFIG)")

	root.AddCommand(newMapCommand())
	root.AddCommand(newClassifyCommand())
	root.AddCommand(newAnalyzeCommand(opts))
	root.AddCommand(newServeCommand(opts))
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
