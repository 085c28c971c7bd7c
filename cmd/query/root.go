package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/spf13/cobra"
)

var (
	// QueryCommands represents the query command group
	QueryCommands = &cobra.Command{
		Use:   "query",
		Short: "Work with filter expressions",
	}

	parseCmd = &cobra.Command{
		Use:   "parse [filter]",
		Short: "Parses a filter and prints its canonical form",
		Long: `Parses a filter and prints its canonical form. Filters use a SQL like syntax:

  active AND age > 18
  age NOT IN (10, 15)
  name = 'alice' OR (score BETWEEN 1.5 AND 3 AND NOT deleted)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := strings.Join(args, " ")
			p, err := query.Parse(filter)
			if err != nil {
				var fe *query.FilterError
				if errors.As(err, &fe) {
					// point at the offending position
					fmt.Println(fe.Filter)
					fmt.Printf("%s^\n", strings.Repeat(" ", fe.Pos))
				}
				return err
			}
			fmt.Println(p.String())
			return nil
		},
	}
)

func init() {
	QueryCommands.AddCommand(parseCmd)
}
