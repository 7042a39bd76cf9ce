package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/casim/internal/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list stored runs",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openDefaultStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logger.Info("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tTIME\tCTRL\tSEED\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Kind,
			run.Name,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Controller,
			run.Seed,
			run.Status,
		)
	}
	return w.Flush()
}
