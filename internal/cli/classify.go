package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nerva/backend/internal/geometry"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <integrity-score>",
		Short: "Classify an integrity score against the alignment threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("invalid integrity score %q: %w", args[0], err)
			}
			writeClassification(cmd.OutOrStdout(), score, geometry.Classify(score))
			return nil
		},
	}
}
