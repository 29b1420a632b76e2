package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/clickhouse"
	"github.com/pseudomuto/chdata/pkg/config"
	"github.com/pseudomuto/chdata/pkg/tables"
	"github.com/urfave/cli/v3"
)

// schema prints the columns of a table as the client sees them when binding
// entities: name, type, default and key membership.
//
// Example usage:
//
//	chdata schema page_views
//	chdata schema analytics.page_views
func schema(cfg *config.Config, factory *clickhouse.Factory) *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print a table schema from system.columns",
		ArgsUsage: "<[database.]table>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			table := strings.TrimSpace(cmd.Args().First())
			if table == "" {
				return errors.New("table name is required")
			}

			client, err := connect(ctx, cfg, factory, false)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			s, err := client.TableSchema(ctx, table)
			if err != nil {
				return err
			}

			return writeSchema(cmd, s)
		},
	}
}

func writeSchema(cmd *cli.Command, s *tables.Schema) error {
	w := tabwriter.NewWriter(output(cmd), 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "%s\n\n", s.QualifiedName())
	fmt.Fprintln(w, "COLUMN\tTYPE\tDEFAULT\tKEY\tCOMMENT")
	for _, c := range s.Columns {
		def := c.DefaultKind
		if c.DefaultExpression != "" {
			def += " " + c.DefaultExpression
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, def, keys(c), c.Comment)
	}

	return w.Flush()
}

func keys(c tables.Column) string {
	var k []string
	if c.InPrimaryKey {
		k = append(k, "primary")
	}

	if c.InSortingKey {
		k = append(k, "sorting")
	}

	if c.InPartitionKey {
		k = append(k, "partition")
	}

	return strings.Join(k, ",")
}
