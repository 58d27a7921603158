package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"nerva/backend/internal/ai"
	"nerva/backend/internal/analysis"
	"nerva/backend/internal/store"
)

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var (
		format string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <dilemma>",
		Short: "Run a dialectic analysis of a dilemma and map it onto the sphere",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if cfg.DisableAI {
				return ai.ErrDisabled
			}
			analyzer, err := buildAnalyzer(cfg.AI, cfg.Fallback)
			if err != nil {
				return err
			}

			opts := analysis.Options{Analyzer: analyzer, Model: cfg.AI.Model}
			if save {
				db, err := store.Open(cfg.DBPath, true)
				if err != nil {
					return err
				}
				defer db.Close()
				opts.Recorder = db
			}

			result, err := analysis.NewService(opts).Evaluate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(w, result)
			case "text":
				writeResult(w, result)
				return nil
			default:
				return fmt.Errorf("unknown format %q (text|json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the evaluation to the configured database")
	return cmd
}

func buildAnalyzer(primaryCfg, fallbackCfg ai.Config) (ai.Analyzer, error) {
	primary, err := ai.NewClient(primaryCfg)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY", err)
		}
		return nil, err
	}
	if strings.TrimSpace(fallbackCfg.APIKey) == "" {
		return primary, nil
	}
	fallback, err := ai.NewClient(fallbackCfg)
	if err != nil {
		return nil, fmt.Errorf("fallback ai client: %w", err)
	}
	logrus.WithField("fallback_model", fallback.Model()).Debug("fallback analyzer configured")
	return ai.WithFallback(primary, fallback), nil
}
