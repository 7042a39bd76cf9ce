package cmd

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/storage"
)

var plotCmd = &cobra.Command{
	Use:   "plot [run_id]",
	Short: "plot a stored run",
	Long: `Plot an episode's attitude against the reference and the applied
command, or a tuning run's fitness history.`,
	Args: cobra.ExactArgs(1),
	RunE: plotRun,
}

func init() {
	plotCmd.Flags().Int("width", 80, "plot width")
	plotCmd.Flags().Int("height", 12, "plot height")
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openDefaultStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}
	opts := []asciigraph.Option{
		asciigraph.Height(viper.GetInt("height")),
		asciigraph.Width(viper.GetInt("width")),
	}

	fmt.Printf("run: %s (%s)\n\n", meta.ID, meta.Kind)
	switch meta.Kind {
	case storage.KindEpisode:
		trace, err := st.LoadTrace(meta.ID)
		if err != nil {
			return err
		}
		if len(trace) == 0 {
			return fmt.Errorf("no data to plot")
		}
		fmt.Println(asciigraph.PlotMany([][]float64{trace.References(), trace.Attitudes()},
			append(opts,
				asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Cyan),
				asciigraph.Caption("attitude (cyan) vs reference"))...))
		fmt.Println()
		fmt.Println(asciigraph.Plot(trace.Applied(),
			append(opts, asciigraph.Caption("applied command"))...))

	case storage.KindTuning:
		res, err := st.LoadTuning(meta.ID)
		if err != nil {
			return err
		}
		if len(res.History) < 2 {
			fmt.Printf("best gains %s fitness %.4f\n", res.Best.Gains, res.Best.Fitness)
			return nil
		}
		best := make([]float64, len(res.History))
		mean := make([]float64, len(res.History))
		for i, g := range res.History {
			best[i], mean[i] = g.Best, g.Mean
		}
		fmt.Println(asciigraph.PlotMany([][]float64{mean, best},
			append(opts,
				asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
				asciigraph.Caption("fitness per generation: best (green), mean"))...))

	default:
		return fmt.Errorf("nothing to plot for %s runs", meta.Kind)
	}
	return nil
}
