package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spl/lib/component"
	"spl/lib/properties"
)

func init() {
	Command.AddCommand(&cobra.Command{
		Use:       "component <source|operator|sink>",
		Short:     "list spl sources, operators or sinks",
		Long:      `list the registered sources, operators or sinks and their properties, sorted by type.`,
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"source", "operator", "sink"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := component.ListDefs(args[0])
			if err != nil {
				return err
			}
			for _, def := range defs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s:\n%s\n", def.Type, args[0], properties.RenderDef(def.Properties))
			}
			return nil
		}})
}
