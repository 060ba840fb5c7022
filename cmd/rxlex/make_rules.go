package main

import (
	"fmt"

	"github.com/spicery/rxlex/pkg/grammar"
)

type makeRulesCmd struct {
	Output string `short:"o" placeholder:"FILE" help:"Output file (defaults to stdout)"`
}

// Run prints the built-in rules as YAML, a starting point for custom rules
// files.
func (c *makeRulesCmd) Run(rc *runContext) (err error) {
	data, err := grammar.DefaultRules().Marshal()
	if err != nil {
		return fmt.Errorf("error generating YAML: %w", err)
	}
	out, closeOut, err := openOutput(c.Output, rc.stdout)
	if err != nil {
		return err
	}
	defer closeOutput(closeOut, &err)
	_, err = out.Write(data)
	return err
}
