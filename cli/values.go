package cli

import (
	"github.com/spf13/cobra"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/serving"
	"github.com/zefrenchwan/egonet.git/versioned"
)

func newSetCommand(env *environment) *cobra.Command {
	var selection elementFlags
	var interval string

	ccmd := &cobra.Command{
		Use:   "set <attribute> <value>",
		Short: "Set the value of an attribute for an element during an interval",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			element, err := selection.element()
			if err != nil {
				return err
			}

			period, err := parseInterval(interval)
			if err != nil {
				return err
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				return store.SetAttributeValueAt(c.Context(), period, args[0], element, args[1])
			})
		},
	}

	selection.register(ccmd.Flags())
	ccmd.Flags().StringVar(&interval, "interval", "", "interval as [start;end[ or [moment], always if empty")
	return ccmd
}

func newGetCommand(env *environment) *cobra.Command {
	var selection elementFlags
	var at string

	ccmd := &cobra.Command{
		Use:   "get <attribute>",
		Short: "Print the value of an attribute for an element at a moment",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			element, err := selection.element()
			if err != nil {
				return err
			}

			moment, err := lifetimes.ParseMoment(at)
			if err != nil {
				return err
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				value, found, err := store.GetValueAt(c.Context(), moment, args[0], element)
				if err != nil {
					return err
				}

				return printJSON(env.stdout, serving.ValueDTO{
					Element: serving.SerializeElement(element),
					Value:   value,
					Found:   found,
				})
			})
		},
	}

	selection.register(ccmd.Flags())
	ccmd.Flags().StringVar(&at, "at", "", "moment, as a date, milliseconds, -oo or +oo")
	ccmd.MarkFlagRequired("at")
	return ccmd
}

func newHistoryCommand(env *environment) *cobra.Command {
	var selection elementFlags

	ccmd := &cobra.Command{
		Use:   "history <attribute>",
		Short: "Print all the values of an attribute for an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			element, err := selection.element()
			if err != nil {
				return err
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				history, err := store.GetAllValuesOverTime(c.Context(), args[0], element)
				if err != nil {
					return err
				}

				return printJSON(env.stdout, serving.HistoryDTO{
					Element:   serving.SerializeElement(element),
					Attribute: args[0],
					Values:    serving.SerializeHistory(history),
				})
			})
		},
	}

	selection.register(ccmd.Flags())
	return ccmd
}
