package cli

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/zefrenchwan/egonet.git/serving"
	"github.com/zefrenchwan/egonet.git/versioned"
)

func newEntitiesCommand(env *environment) *cobra.Command {
	var interval string

	ccmd := &cobra.Command{
		Use:   "entities",
		Short: "Print the elements existing during an interval",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			period, err := parseInterval(interval)
			if err != nil {
				return err
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				values, err := store.GetAllEntitiesAt(c.Context(), period)
				if err != nil {
					return err
				}

				return printJSON(env.stdout, serving.SerializeElements(values))
			})
		},
	}

	ccmd.Flags().StringVar(&interval, "interval", "", "interval as [start;end[ or [moment], always if empty")
	return ccmd
}

func newImportCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a json array of facts in one transaction",
		Long: `
Imports facts from a json file, - for stdin. Each fact is
{"kind": "add|remove|value", "element": {...}, "interval": "[start;end[", "attribute": "...", "value": "..."}.
Rejected facts are reported and do not stop the import.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var dtos []serving.FactDTO
			var decoder *json.Decoder
			if args[0] == "-" {
				decoder = json.NewDecoder(env.stdin)
			} else if file, err := os.Open(args[0]); err != nil {
				return errors.Wrapf(err, "cannot open %s", args[0])
			} else {
				defer file.Close()
				decoder = json.NewDecoder(file)
			}

			if err := decoder.Decode(&dtos); err != nil {
				return errors.Wrap(err, "invalid facts")
			}

			facts, err := serving.DeserializeFacts(dtos)
			if err != nil {
				return err
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				report, err := store.Import(c.Context(), facts)
				if err != nil {
					return err
				}

				env.logger.Infow("import", "applied", report.Applied, "rejected", len(report.Rejected))
				return printJSON(env.stdout, serving.SerializeImportReport(report))
			})
		},
	}
}
