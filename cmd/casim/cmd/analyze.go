package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/analysis"
	"github.com/san-kum/casim/internal/storage"
	"github.com/san-kum/casim/internal/viz"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [run_id]",
	Short: "frequency and phase analysis of an episode",
	Args:  cobra.ExactArgs(1),
	RunE:  analyzeRun,
}

func init() {
	analyzeCmd.Flags().Bool("phase", false, "print the attitude phase portrait")
	analyzeCmd.Flags().Float64("divergence", 0, "also estimate divergence for this initial attitude perturbation")
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openDefaultStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}
	if meta.Kind != storage.KindEpisode {
		return fmt.Errorf("run %s is a %s run, not an episode", meta.ID, meta.Kind)
	}
	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	dt := 1.0
	if meta.Config != nil {
		dt = meta.Config.Dt
	}
	onset := 0
	if meta.Config != nil {
		onset = meta.Config.Reference.Onset
	}

	// Analyze the response after the step so the step itself does not
	// dominate the spectrum.
	var tail []float64
	for _, r := range trace {
		if r.Tick >= onset {
			tail = append(tail, r.Attitude-r.Reference)
		}
	}

	period := "none"
	if p, ok := analysis.DominantPeriod(tail, dt); ok {
		period = fmt.Sprintf("%.2f", p)
	}
	crossings := analysis.ReferenceCrossings(trace)

	pairs := [][2]string{
		{"samples", strconv.Itoa(len(trace))},
		{"dominant period", period},
		{"reference crossings", strconv.Itoa(len(crossings))},
	}

	if eps := viper.GetFloat64("divergence"); eps > 0 {
		if meta.Config == nil {
			return fmt.Errorf("run %s has no stored configuration", meta.ID)
		}
		lambda, err := analysis.Divergence(*meta.Config, eps)
		if err != nil {
			return err
		}
		pairs = append(pairs, [2]string{"divergence rate", fmt.Sprintf("%.4f", lambda)})
	}

	fmt.Println(viz.Panel.Render(viz.Title.Render(meta.ID) + "\n\n" + viz.KeyValues(pairs)))

	if viper.GetBool("phase") {
		fmt.Println()
		fmt.Print(analysis.NewPhasePortrait(trace, dt).ASCII(60, 20))
	}
	return nil
}
