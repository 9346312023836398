package cmd

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/idwrap"
	"github.com/the-dev-tools/dev-tools/packages/formtree/pkg/model/mtree"
)

type outputFormat struct {
	json bool
	yaml bool
}

func (o *outputFormat) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON")
	cmd.Flags().BoolVar(&o.yaml, "yaml", false, "print YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func (o outputFormat) structured() bool {
	return o.json || o.yaml
}

// write prints v as JSON or YAML. It reports false when neither was asked
// for, leaving plain text to the caller.
func (o outputFormat) write(w io.Writer, v any) (bool, error) {
	switch {
	case o.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case o.yaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func parseID(flag, value string) (idwrap.IDWrap, error) {
	id, err := idwrap.NewText(value)
	if err != nil {
		return idwrap.IDWrap{}, fmt.Errorf("--%s %q: %w", flag, value, err)
	}
	return id, nil
}

func parseIDs(values []string) ([]idwrap.IDWrap, error) {
	ids := make([]idwrap.IDWrap, len(values))
	for i, v := range values {
		id, err := idwrap.NewText(v)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", v, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func parseDirective(s string) (mtree.DropDirective, error) {
	if cfg.StrictDirectives {
		return mtree.ParseDropDirectiveStrict(s)
	}
	return mtree.ParseDropDirective(s), nil
}
