package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/config"
	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/optim"
	"github.com/san-kum/casim/internal/sim"
	"github.com/san-kum/casim/internal/storage"
	"github.com/san-kum/casim/internal/viz"
)

var tuneCmd = &cobra.Command{
	Use:   "tune [preset]",
	Short: "tune controller gains",
	Long: `Search for Kp, Ki, Kd minimizing the weighted objective over a set of
evaluation seeds, either with the genetic search (default) or an
exhaustive log-spaced grid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: tuneGains,
}

func init() {
	addEpisodeFlags(tuneCmd)
	tuneCmd.Flags().String("method", "ga", "search method (ga, grid)")
	tuneCmd.Flags().Int("generations", 15, "GA generations")
	tuneCmd.Flags().Int("population", 20, "GA population size")
	tuneCmd.Flags().Int("eval-seeds", 3, "episodes per fitness evaluation")
	tuneCmd.Flags().Int("workers", 4, "parallel fitness evaluations")
	tuneCmd.Flags().Int64("ga-seed", 1, "search seed")
	tuneCmd.Flags().Int("grid-points", 4, "points per gain axis for --method grid")
	tuneCmd.Flags().Bool("live", false, "show an interactive progress view")
}

func applyTunerFlags(cfg *config.Config) {
	t := &cfg.Tuner
	if viper.IsSet("generations") {
		t.Generations = viper.GetInt("generations")
	}
	if viper.IsSet("population") {
		t.PopulationSize = viper.GetInt("population")
	}
	if viper.IsSet("eval-seeds") {
		t.EvalSeeds = viper.GetInt("eval-seeds")
	}
	if viper.IsSet("workers") {
		t.Workers = viper.GetInt("workers")
	}
	if viper.IsSet("ga-seed") {
		t.Seed = viper.GetInt64("ga-seed")
	}
}

func tuneGains(cmd *cobra.Command, args []string) error {
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
	applyTunerFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithPrefix("tune").WithField("controller", cfg.Episode.Controller.Kind)

	var (
		res    *optim.TuneResult
		runErr error
	)
	switch method := viper.GetString("method"); method {
	case "ga":
		res, runErr = runGA(ctx, cfg, log)
	case "grid":
		res, runErr = runGrid(ctx, cfg, log)
	default:
		return fmt.Errorf("unknown search method: %s", method)
	}
	if res == nil {
		return runErr
	}
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		log.Warn("search interrupted, keeping the best individual so far")
	}

	log.Infof("best gains %s fitness %.4f", res.Best.Gains, res.Best.Fitness)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.SaveTuning(storage.RunMetadata{
		Name:       viper.GetString("method"),
		Seed:       cfg.Tuner.Seed,
		Controller: string(cfg.Episode.Controller.Kind),
		Config:     &cfg.Episode,
		Gains:      &res.Best.Gains,
	}, res)
	if err != nil {
		return err
	}
	log.Infof("run id: %s", runID)
	return nil
}

func runGA(ctx context.Context, cfg *config.Config, log logger.Logger) (*optim.TuneResult, error) {
	ga, err := optim.NewGA(cfg.Tuner, cfg.Objective())
	if err != nil {
		return nil, err
	}

	if !viper.GetBool("live") {
		ga.OnGeneration = func(s optim.GenerationStats) {
			log.Infof("generation %d: best %.4f mean %.4f %s", s.Generation, s.Best, s.Mean, s.BestGains)
		}
		return ga.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewTuneModel(string(cfg.Episode.Controller.Kind), cfg.Tuner.Generations, cancel))
	ga.OnGeneration = func(s optim.GenerationStats) {
		p.Send(viz.GenerationMsg(s))
	}

	type outcome struct {
		res *optim.TuneResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := ga.Run(ctx)
		done <- outcome{res, err}
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	out := <-done
	return out.res, out.err
}

func runGrid(ctx context.Context, cfg *config.Config, log logger.Logger) (*optim.TuneResult, error) {
	n := viper.GetInt("grid-points")
	if n < 1 {
		return nil, fmt.Errorf("grid points must be >= 1, got %d", n)
	}
	b := cfg.Tuner.Bounds
	kp := logSpace(b.Min.Kp, b.Max.Kp, n)
	ki := logSpace(b.Min.Ki, b.Max.Ki, n)
	kd := logSpace(b.Min.Kd, b.Max.Kd, n)
	seeds := sim.Seeds(cfg.Tuner.Seed, cfg.Tuner.EvalSeeds)

	log.Infof("evaluating %d gain vectors on %d seeds", n*n*n, len(seeds))
	best, err := optim.GainGrid(ctx, cfg.Objective(), seeds, kp, ki, kd)
	if err != nil {
		return nil, err
	}
	return &optim.TuneResult{Best: best}, nil
}

// logSpace returns n points from lo to hi, evenly spaced in log scale.
func logSpace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{math.Sqrt(lo * hi)}
	}
	out := make([]float64, n)
	a, b := math.Log(lo), math.Log(hi)
	for i := range out {
		out[i] = math.Exp(a + (b-a)*float64(i)/float64(n-1))
	}
	return out
}
