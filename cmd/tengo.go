package main

import (
	_c "context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spl/lib/component/operator/tengo"
	"spl/spl"
)

type eventDef struct {
	Meta    map[string]any `mapstructure:"meta"`
	Message any            `mapstructure:"message"`
	Time    string         `mapstructure:"time"`
}

//loadEvents reads the `events` list of a yaml or json file
func loadEvents(file string) ([]*spl.Event, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithMessagef(err, "can't read events file %s", file)
	}
	var defs []eventDef
	if err := v.UnmarshalKey("events", &defs); err != nil {
		return nil, errors.WithMessage(err, "can't decode events")
	}
	events := make([]*spl.Event, len(defs))
	for i, def := range defs {
		event := &spl.Event{Meta: def.Meta, Message: def.Message}
		//yaml decodes nested maps with interface keys
		if m, ok := def.Message.(map[interface{}]interface{}); ok {
			event.Message = cast.ToStringMap(m)
		}
		if def.Time != "" {
			t, err := cast.ToTimeE(def.Time)
			if err != nil {
				return nil, errors.WithMessagef(err, "event %d", i)
			}
			event.Time = t
		}
		if event.Meta == nil {
			event.Meta = map[string]any{}
		}
		events[i] = event
	}
	return events, nil
}

func init() {
	command := &cobra.Command{
		Use:   "tengo",
		Short: "try tengo expressions and reduce scripts",
		Long:  `evaluate the partition, filter and attribute expressions or the reduce script of a window against events read from a file`,
	}
	command.AddCommand(&cobra.Command{
		Use:   "eval <expression> <events-file>",
		Short: "evaluate an expression for every event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expression, err := tengo.CompileExpression(args[0])
			if err != nil {
				return err
			}
			events, err := loadEvents(args[1])
			if err != nil {
				return err
			}
			for i, event := range events {
				value, err := expression.Eval(_c.Background(), event)
				if err != nil {
					return errors.WithMessagef(err, "event %d", i)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d: %+v\n", i, value)
			}
			return nil
		},
	})
	command.AddCommand(&cobra.Command{
		Use:   "reduce <script-file> <events-file>",
		Short: "run a reduce script over all events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reducer, err := tengo.CompileReducer(string(source))
			if err != nil {
				return err
			}
			events, err := loadEvents(args[1])
			if err != nil {
				return err
			}
			result, err := reducer.Reduce(_c.Background(), events)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", result)
			return nil
		},
	})
	Command.AddCommand(command)
}
