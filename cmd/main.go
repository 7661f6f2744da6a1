package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "spl/lib"
)

var Command = &cobra.Command{
	Use:   "spl",
	Short: "spl is a stream processing runtime with sliding windows.",
	Long:  `spl runs a topology of sources, operators and sinks described by a config file.`,
}

func main() {
	if err := Command.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
