package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nerva/backend/internal/geometry"
)

type mapOutput struct {
	Input          geometry.ScoreInput     `json:"input"`
	Vector         geometry.DecisionVector `json:"vector"`
	IntegrityScore *float64                `json:"integrity_score,omitempty"`
	Classification geometry.Classification `json:"classification,omitempty"`
}

func newMapCommand() *cobra.Command {
	var (
		confidence float64
		risk       float64
		integrity  float64
		format     string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map confidence and risk scores onto the unit sphere",
		Long: "Computes theta = (1 - confidence/100)·π and phi = (risk/100)·2π and prints the\n" +
			"spherical and Cartesian coordinates. Scores outside [0, 100] are rejected.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := geometry.ScoreInput{Confidence: confidence, Risk: risk}
			vector, err := in.Map()
			if err != nil {
				return err
			}
			out := mapOutput{Input: in, Vector: vector}
			if cmd.Flags().Changed("integrity") {
				out.IntegrityScore = &integrity
				out.Classification = geometry.Classify(integrity)
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(w, out)
			case "text":
				writeVector(w, vector)
				if out.IntegrityScore != nil {
					writeClassification(w, integrity, out.Classification)
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q (text|json)", format)
			}
		},
	}
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence (thesis strength) score, 0-100 (required)")
	cmd.Flags().Float64Var(&risk, "risk", 0, "Risk (antithesis) score, 0-100 (required)")
	cmd.Flags().Float64Var(&integrity, "integrity", 0, "Integrity score to classify (optional)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text|json)")
	_ = cmd.MarkFlagRequired("confidence")
	_ = cmd.MarkFlagRequired("risk")
	return cmd
}
