package cli

import (
	"github.com/spf13/cobra"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/versioned"
)

func newDeclareCommand(env *environment) *cobra.Command {
	var domain, valueType, dynamicType, direction string
	var declaration schema.Attribute

	ccmd := &cobra.Command{
		Use:   "declare <name>",
		Short: "Declare an attribute",
		Long: `
Declares an attribute for a domain. Declaring again merges choices,
and may change types as long as no value is stored.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			declaration.Name = args[0]
			if value, err := elements.ParseDomain(domain); err != nil {
				return err
			} else {
				declaration.Domain = value
			}

			if value, err := schema.ParseValueType(valueType); err != nil {
				return err
			} else {
				declaration.ValueType = value
			}

			if value, err := schema.ParseDynamicType(dynamicType); err != nil {
				return err
			} else {
				declaration.DynamicType = value
			}

			if value, err := schema.ParseDirectionType(direction); err != nil {
				return err
			} else {
				declaration.Direction = value
			}

			return env.withStore(c.Context(), func(store *versioned.Store) error {
				return store.DeclareAttribute(c.Context(), declaration)
			})
		},
	}

	flags := ccmd.Flags()
	flags.StringVar(&domain, "domain", "alter", "domain of the attribute")
	flags.StringVar(&valueType, "type", "TEXT", "value type: TEXT, NUMBER or FINITE_CHOICE")
	flags.StringVar(&dynamicType, "dynamic", "STATE", "dynamic type: STATE or EVENT")
	flags.StringVar(&direction, "direction", "NONE", "direction type: NONE, SYMMETRIC, ASYMMETRIC, OUT or IN")
	flags.StringVar(&declaration.Description, "description", "", "free description")
	flags.StringSliceVar(&declaration.Choices, "choice", nil, "accepted value for FINITE_CHOICE, repeatable")
	return ccmd
}

func newRenameCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <alter> <new name>",
		Short: "Rename an alter everywhere",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return env.withStore(c.Context(), func(store *versioned.Store) error {
				return store.RenameAlter(c.Context(), args[0], args[1])
			})
		},
	}
}
