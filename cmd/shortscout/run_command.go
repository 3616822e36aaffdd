package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shortscout/internal/checkpoint"
)

// paramFlags are the run parameters shared by run and checkpoint advance.
type paramFlags struct {
	topic    string
	language string
	region   string
	days     int
	target   int
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.topic, "topic", "t", "", "Topic to search for (positional arguments also work)")
	cmd.Flags().StringVarP(&p.language, "language", "l", "", "Language code (default from config)")
	cmd.Flags().StringVarP(&p.region, "region", "r", "", "Region code (default from config)")
	cmd.Flags().IntVar(&p.days, "days", 0, "Only videos published within this many days (default from config)")
	cmd.Flags().IntVarP(&p.target, "target", "n", 0, "Number of shorts to collect, at most 50 (default from config)")
}

func (p *paramFlags) params(args []string) checkpoint.Params {
	topic := p.topic
	if strings.TrimSpace(topic) == "" {
		topic = strings.Join(args, " ")
	}
	return checkpoint.Params{
		Topic:    topic,
		Language: p.language,
		Region:   p.region,
		Days:     p.days,
		Target:   p.target,
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags paramFlags
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run [topic]",
		Short: "Run discovery, enrichment, and export for a topic in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := ctx.pipelineRuntime(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := runtime.Controller.RunAll(cmd.Context(), flags.params(args))
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func printSummary(out io.Writer, summary checkpoint.Summary) {
	fmt.Fprintf(out, "Topic:   %s\n", summary.Topic)
	fmt.Fprintf(out, "Queries: %d\n", summary.QueryCount)
	fmt.Fprintf(out, "Shorts:  %d\n", summary.ShortsCount)
	if summary.Sink != "" {
		fmt.Fprintf(out, "Export:  %d rows to %s\n", summary.RowsWritten, summary.Sink)
	}
	if len(summary.Items) == 0 {
		fmt.Fprintln(out, "No shorts found")
		return
	}
	rows := make([][]string, 0, len(summary.Items))
	for i, item := range summary.Items {
		transcript := item.Transcript
		if strings.TrimSpace(transcript) == "" {
			transcript = "-"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), item.URL, transcript})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "URL", "Transcript"}, rows, []columnAlignment{alignRight}))
}
