package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/casim/internal/storage"
	"github.com/san-kum/casim/internal/viz"
)

var exportCmd = &cobra.Command{
	Use:   "export [run_id]",
	Short: "export a stored episode as JSON, CSV or SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  exportRun,
}

func init() {
	exportCmd.Flags().String("format", "json", "output format (json, csv, svg)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openDefaultStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path := viper.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch meta.Kind {
	case storage.KindSweep:
		rows, err := st.LoadSweep(meta.ID)
		if err != nil {
			return err
		}
		return storage.WriteRowsCSV(w, rows)
	case storage.KindTuning:
		return fmt.Errorf("tuning runs are stored as JSON already; see %s", meta.ID)
	}

	trace, err := st.LoadTrace(meta.ID)
	if err != nil {
		return err
	}
	switch format := viper.GetString("format"); format {
	case "json":
		return storage.ExportJSON(w, *meta, trace)
	case "csv":
		return storage.WriteTraceCSV(w, trace)
	case "svg":
		_, err := io.WriteString(w, viz.TraceSVG(trace, 800, 300)+"\n")
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
