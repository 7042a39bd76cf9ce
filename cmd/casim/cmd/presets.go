package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/casim/internal/config"
	"github.com/san-kum/casim/internal/experiment"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [name]",
	Short: "list presets and factor levels, or print one preset as yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return errUnknownPreset(args[0])
			}
			return config.Write(os.Stdout, cfg)
		}

		reg := experiment.NewRegistry()
		fmt.Println("presets:")
		for _, p := range config.ListPresets() {
			fmt.Printf("  %s\n", p)
		}
		fmt.Printf("\ncontrollers: %v\n", reg.ListControllers())
		fmt.Printf("turbulence:  %v\n", reg.ListTurbulence())
		fmt.Printf("failures:    %v\n", reg.ListFailures())
		return nil
	},
}
