package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/ca"
	"github.com/san-kum/casim/internal/config"
	"github.com/san-kum/casim/internal/experiment"
)

func errUnknownPreset(name string) error {
	return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
}

// addEpisodeFlags registers the factor-level and gain overrides shared by
// run and tune. Unset flags leave the configuration untouched.
func addEpisodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("controller", "", "controller (pid, lqr, mpc, none)")
	cmd.Flags().String("grid", "", "lattice shape, e.g. 30x30")
	cmd.Flags().String("turbulence", "", "turbulence level (none, low, high, block)")
	cmd.Flags().String("failure", "", "failure mode (none, outage, sensor_bias, actuator_sat)")
	cmd.Flags().Int64("seed", 1, "episode seed")
	cmd.Flags().Int("horizon", 600, "episode length in ticks")
	cmd.Flags().Float64("kp", 1.0, "proportional gain")
	cmd.Flags().Float64("ki", 0.1, "integral gain")
	cmd.Flags().Float64("kd", 0.05, "derivative gain")
}

func applyEpisodeFlags(cfg *config.Config) error {
	reg := experiment.NewRegistry()
	ep := &cfg.Episode

	if viper.IsSet("seed") {
		ep.Seed = viper.GetInt64("seed")
	}
	if viper.IsSet("horizon") {
		ep.Horizon = viper.GetInt("horizon")
	}
	if viper.IsSet("grid") {
		shape, err := ca.ParseShape(viper.GetString("grid"))
		if err != nil {
			return err
		}
		ep.Grid = shape
	}
	if viper.IsSet("turbulence") {
		tb, err := reg.GetTurbulence(viper.GetString("turbulence"))
		if err != nil {
			return err
		}
		ep.Turbulence = tb
	}
	if viper.IsSet("failure") {
		f, err := reg.GetFailure(viper.GetString("failure"), ep.Seed)
		if err != nil {
			return err
		}
		ep.Failure = f
	}

	params := cfg.GetControllerParams()
	for _, key := range []string{"kp", "ki", "kd"} {
		if viper.IsSet(key) {
			params[key] = viper.GetFloat64(key)
		}
	}
	if viper.IsSet("controller") {
		ctrl, err := reg.GetController(viper.GetString("controller"), params)
		if err != nil {
			return err
		}
		ctrl.IntegralLimit = ep.Controller.IntegralLimit
		if ep.Controller.Horizon > 0 {
			ctrl.Horizon = ep.Controller.Horizon
		}
		ep.Controller = ctrl
	} else {
		ep.Controller.Gains.Kp = params["kp"]
		ep.Controller.Gains.Ki = params["ki"]
		ep.Controller.Gains.Kd = params["kd"]
	}

	return cfg.Validate()
}
