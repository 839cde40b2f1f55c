package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/pflag"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// elementFlags select an element by domain and key parts
type elementFlags struct {
	domain string
	key    []string
}

func (e *elementFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&e.domain, "domain", "ego", "domain of the element: ego, alter, ego_alter or alter_alter")
	flags.StringSliceVar(&e.key, "key", nil, "key of the element: alter name, alter and OUT or IN, source and target")
}

func (e *elementFlags) element() (elements.Element, error) {
	domain, err := elements.ParseDomain(e.domain)
	if err != nil {
		return nil, err
	}

	key := e.key
	if key == nil {
		key = []string{}
	}

	return elements.FromSelectionKey(domain, key)
}

// parseInterval reads an interval, empty meaning always
func parseInterval(value string) (lifetimes.TimeInterval, error) {
	if value == "" {
		return lifetimes.Always(), nil
	}

	return lifetimes.ParseTimeInterval(value)
}

// printJSON writes value as indented json
func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
