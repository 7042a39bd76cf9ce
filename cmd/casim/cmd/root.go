package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/config"
	"github.com/san-kum/casim/internal/logger"
	"github.com/san-kum/casim/internal/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "casim",
	Short: "closed-loop control on a cellular-automaton vehicle",
	Long: `casim simulates a vehicle embedded in a cellular lattice, closes a
PID, LQR or MPC loop around it, tunes the gains with a genetic search and
runs factorial robustness sweeps over turbulence and failure modes.

Settings are layered: flags override CASIM_* environment variables, which
override the --config file, which overrides the chosen preset.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		logger.SetLevel(logger.ParseLevel(viper.GetString("log-level")))
		logger.SetNoColor(viper.GetBool("no-color"))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "episode config file (yaml)")
	rootCmd.PersistentFlags().String("data", config.DefaultStoreDir, "run store directory")
	rootCmd.PersistentFlags().String("store", config.DefaultStoreKind, "run store backend (file, sqlite)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd, tuneCmd, sweepCmd, listCmd, plotCmd, analyzeCmd, presetsCmd, exportCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	viper.SetEnvPrefix("CASIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// loadConfig layers preset, config file and flags/environment, in that
// order of increasing precedence.
func loadConfig(preset string) (*config.Config, error) {
	if preset == "" {
		preset = "nominal"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, errUnknownPreset(preset)
	}
	if cfgFile != "" {
		if err := config.Merge(cfgFile, cfg); err != nil {
			return nil, err
		}
	}
	if viper.IsSet("store") {
		cfg.Storage.Kind = viper.GetString("store")
	}
	if viper.IsSet("data") {
		cfg.Storage.Dir = viper.GetString("data")
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	st, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// openDefaultStore is for commands that read existing runs.
func openDefaultStore() (storage.Store, error) {
	cfg, err := loadConfig("")
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}
