package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/simonhull/mqaid/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the findings of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.HistoryPath()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No history recorded at %s\n", path)
				return nil
			}

			store, err := history.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				findings, err := store.Findings(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(findings) == 0 {
					fmt.Fprintf(out, "No findings for run %s\n", args[0])
					return nil
				}
				fmt.Fprintln(out, renderFindings(findings))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		duration := "running"
		if r.Finished != nil {
			duration = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.ID,
			r.Started.Local().Format(time.DateTime),
			duration,
			yesNo(r.DryRun),
			humanize.Comma(int64(r.Scanned)),
			humanize.Comma(int64(r.Matched)),
			humanize.Comma(int64(r.Failed)),
			humanize.Comma(int64(r.Tagged)),
			humanize.Bytes(uint64(max(r.Bytes, 0))),
		})
	}
	return renderTable(
		[]string{"Run", "Started", "Time", "Dry run", "Scanned", "MQA", "Failed", "Tagged", "Data"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderFindings(findings []history.Finding) string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{f.Path, f.State, f.Encoding, f.Error})
	}
	return renderTable(
		[]string{"Path", "State", "Encoding", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
