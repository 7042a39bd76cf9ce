package cmd

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/automation"
	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/storage"
)

const (
	rawCSV     = "metrics_summary_raw.csv"
	groupedCSV = "metrics_summary_grouped.csv"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "run a factorial robustness sweep",
	Long: `Run every combination of controller, grid, turbulence and failure level
for a number of seeds, then write the raw per-episode rows and the grouped
aggregates as CSV and check that every group has enough seeds.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().String("plan", "", "sweep plan file (yaml); default is the full robustness plan")
	sweepCmd.Flags().Int("seeds", 5, "episodes per factor combination")
	sweepCmd.Flags().Int64("seed-offset", 0, "first seed")
	sweepCmd.Flags().Int("horizon", 600, "episode length in ticks")
	sweepCmd.Flags().Int("workers", 4, "parallel episodes")
	sweepCmd.Flags().Int("min-seeds", 0, "QC minimum rows per group (default: plan seeds)")
	sweepCmd.Flags().String("outdir", "sweep_out", "directory for the CSV outputs")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	plan := automation.DefaultPlan()
	if path := viper.GetString("plan"); path != "" {
		p, err := automation.LoadPlan(path)
		if err != nil {
			return err
		}
		plan = *p
	}
	if viper.IsSet("seeds") {
		plan.Seeds = viper.GetInt("seeds")
	}
	if viper.IsSet("seed-offset") {
		plan.SeedOffset = viper.GetInt64("seed-offset")
	}
	if viper.IsSet("horizon") {
		plan.Horizon = viper.GetInt("horizon")
	}
	if viper.IsSet("workers") {
		plan.Workers = viper.GetInt("workers")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithPrefix("sweep")
	log.Infof("plan %s: %d cells x %d seeds", plan.Name, len(plan.Cells()), plan.Seeds)

	sw := &automation.Sweep{
		Plan:     plan,
		Base:     cfg.Episode,
		Recovery: cfg.Recovery,
		Log:      log,
	}
	rows, err := sw.Run(ctx)
	if err != nil {
		return err
	}

	outdir := viper.GetString("outdir")
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return err
	}
	rawPath := filepath.Join(outdir, rawCSV)
	f, err := os.Create(rawPath)
	if err != nil {
		return err
	}
	if err := storage.WriteRowsCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	groupPath := filepath.Join(outdir, groupedCSV)
	if err := writeGroups(groupPath, automation.GroupRows(rows)); err != nil {
		return err
	}
	log.Infof("wrote %s and %s", rawPath, groupPath)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	runID, err := st.SaveSweep(storage.RunMetadata{Name: plan.Name, Seed: plan.SeedOffset}, rows)
	if err != nil {
		return err
	}
	log.Infof("run id: %s", runID)

	minSeeds := plan.Seeds
	if viper.IsSet("min-seeds") {
		minSeeds = viper.GetInt("min-seeds")
	}
	rep := automation.QC(rows, minSeeds, &plan)
	if !rep.OK() {
		return rep.Err()
	}
	log.Infof("qc passed: %d rows in %d groups, >= %d seeds each", rep.Rows, rep.Groups, minSeeds)
	return nil
}

func writeGroups(path string, groups []automation.Group) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(automation.GroupHeader()); err != nil {
		return err
	}
	for _, g := range groups {
		if err := w.Write(g.Strings()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
