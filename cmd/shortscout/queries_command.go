package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shortscout/internal/queries"
)

func newQueriesCommand() *cobra.Command {
	var lang string
	var extended bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "queries <topic>",
		Short:       "Show the search queries generated for a topic",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			list := queries.Expand(topic, lang)
			if len(list) == 0 {
				return errors.New("topic must not be blank")
			}
			if extended {
				list = queries.Extend(topic, list, lang)
			}
			if jsonOut {
				return writeJSON(cmd, list)
			}
			rows := make([][]string, 0, len(list))
			for i, q := range list {
				rows = append(rows, []string{strconv.Itoa(i + 1), q})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Query"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "language", "l", "", "Language code (accepted for parity with run)")
	cmd.Flags().BoolVar(&extended, "extended", false, "Include the extension used once the base queries are exhausted")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print queries as a JSON array")
	return cmd
}
