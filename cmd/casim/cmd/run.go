package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/casim/internal/automation"
	"github.com/san-kum/casim/internal/config"
	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/metrics"
	"github.com/san-kum/casim/internal/sim"
	"github.com/san-kum/casim/internal/storage"
	"github.com/san-kum/casim/internal/viz"
)

var runCmd = &cobra.Command{
	Use:   "run [preset]",
	Short: "run one episode",
	Long: `Run one closed-loop episode and store its trace.

With --trials the episode is instead repeated as a Monte Carlo batch over
perturbed initial attitudes, and only the crash count is reported. With
--ensemble the unchanged configuration runs over consecutive seeds in
parallel and the mean metrics are reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEpisode,
}

func init() {
	addEpisodeFlags(runCmd)
	runCmd.Flags().Bool("no-save", false, "do not store the run")
	runCmd.Flags().Bool("lattice", false, "print the final lattice")
	runCmd.Flags().Int("trials", 0, "Monte Carlo trials over perturbed initial attitude")
	runCmd.Flags().Float64("perturb", 0.1, "initial attitude perturbation for --trials")
	runCmd.Flags().Int("ensemble", 0, "run this many consecutive seeds in parallel")
	runCmd.Flags().Int("workers", 4, "parallel episodes for --ensemble")
}

func runEpisode(cmd *cobra.Command, args []string) error {
	preset := ""
	if len(args) > 0 {
		preset = args[0]
	}
	cfg, err := loadConfig(preset)
	if err != nil {
		return err
	}
	if err := applyEpisodeFlags(cfg); err != nil {
		return err
	}

	log := logger.WithPrefix("run")
	if n := viper.GetInt("trials"); n > 0 {
		return runMonteCarlo(cmd.Context(), cfg, n, log)
	}
	if n := viper.GetInt("ensemble"); n > 0 {
		return runEnsemble(cmd.Context(), cfg, n, log)
	}

	ep, err := sim.NewEpisode(cfg.Episode)
	if err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"controller": cfg.Episode.Controller.Kind,
		"grid":       cfg.Episode.Grid,
		"seed":       cfg.Episode.Seed,
	}).Info("running episode")
	start := time.Now()
	res := ep.Run()
	elapsed := time.Since(start)

	sum := metrics.Summarize(res, cfg.Episode.Reference, cfg.Recovery)
	printSummary(res, sum)
	log.Debugf("completed in %v", elapsed)

	if viper.GetBool("lattice") {
		fmt.Println()
		fmt.Print(viz.Lattice(ep.Grid(), cfg.Episode.Limits.Attitude))
	}

	if viper.GetBool("no-save") {
		return nil
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	name := preset
	if name == "" {
		name = "nominal"
	}
	runID, err := st.SaveEpisode(storage.RunMetadata{
		Name:       name,
		Seed:       res.Seed,
		Controller: string(cfg.Episode.Controller.Kind),
		Status:     res.Status.String(),
		Config:     &cfg.Episode,
		Summary:    &sum,
	}, res.Trace)
	if err != nil {
		return err
	}
	log.Infof("run id: %s", runID)
	return nil
}

func printSummary(res *sim.Result, sum metrics.Summary) {
	status := viz.StatusOK.Render(res.Status.String())
	if res.Crashed() {
		status = viz.StatusCrash.Render(fmt.Sprintf("%s at tick %d", res.Status, res.CrashTick))
	}

	ttr := "not recovered"
	if sum.Recovered() {
		ttr = strconv.Itoa(sum.TimeToRecover) + " ticks"
	}

	fmt.Println(viz.Panel.Render(
		viz.Title.Render("episode") + "  " + status + "\n\n" +
			viz.KeyValues([][2]string{
				{"ticks", strconv.Itoa(sum.Ticks)},
				{"overshoot", fmt.Sprintf("%.4f", sum.Overshoot)},
				{"time to recover", ttr},
				{"stability variance", fmt.Sprintf("%.3g", sum.StabilityVariance)},
				{"control effort", fmt.Sprintf("%.4f", sum.ControlEffort)},
			}),
	))
}

func runMonteCarlo(ctx context.Context, cfg *config.Config, trials int, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg.Episode,
		Recovery:     cfg.Recovery,
		Perturbation: viper.GetFloat64("perturb"),
		NumTrials:    trials,
		Seed:         cfg.Episode.Seed,
	}, log)
	if err != nil {
		return err
	}

	completed, crashed := automation.MonteCarloStats(results)
	recovered := 0
	for _, r := range results {
		if r.Summary.Recovered() {
			recovered++
		}
	}
	fmt.Println(viz.KeyValues([][2]string{
		{"trials", strconv.Itoa(len(results))},
		{"completed", strconv.Itoa(completed)},
		{"crashed", strconv.Itoa(crashed)},
		{"recovered", strconv.Itoa(recovered)},
	}))
	return nil
}

func runEnsemble(ctx context.Context, cfg *config.Config, n int, log logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	seeds := sim.Seeds(cfg.Episode.Seed, n)
	log.Infof("ensemble of %d seeds from %d", n, cfg.Episode.Seed)
	results, err := sim.NewEnsemble(cfg.Episode, seeds, viper.GetInt("workers")).Run(ctx)
	if err != nil {
		return err
	}

	overshoot := make([]float64, 0, n)
	effort := make([]float64, 0, n)
	crashed, recovered := 0, 0
	for _, res := range results {
		sum := metrics.Summarize(res, cfg.Episode.Reference, cfg.Recovery)
		overshoot = append(overshoot, sum.Overshoot)
		effort = append(effort, sum.ControlEffort)
		if sum.Crash {
			crashed++
		}
		if sum.Recovered() {
			recovered++
		}
	}
	fmt.Println(viz.KeyValues([][2]string{
		{"seeds", strconv.Itoa(n)},
		{"crashed", strconv.Itoa(crashed)},
		{"recovered", strconv.Itoa(recovered)},
		{"mean overshoot", fmt.Sprintf("%.4f", stat.Mean(overshoot, nil))},
		{"mean control effort", fmt.Sprintf("%.4f", stat.Mean(effort, nil))},
	}))
	return nil
}
