package main

import (
	_c "context"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"spl/lib/runtime"
)

func init() {
	Command.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "run a topology",
		Long:  `config source operator sink, start the topology and block until a signal arrives`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			configFilePath := args[0]
			ext := path.Ext(configFilePath)
			if ext == "" {
				panic("config file needs an extension, like yaml or json")
			}
			name := strings.TrimSuffix(path.Base(configFilePath), ext)
			r := runtime.New(_c.Background(), name, ext[1:], path.Dir(configFilePath))
			r.Run()
		},
	})
}
