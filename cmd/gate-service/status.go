package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gate-service/internal/logger"
	"gate-service/internal/messaging"
	"gate-service/internal/rollingcode"
	"gate-service/internal/types"
)

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the published receiver and sender state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, types.RoleReceiver)
			if err != nil {
				return err
			}

			client := messaging.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.NodeID, cfg.StoreNamespace,
				logger.NewLogger(nil, logger.LogLevelNone))
			if err := client.Connect(); err != nil {
				return err
			}
			defer client.Close()

			for _, hash := range []string{messaging.GateHash, messaging.SenderHash} {
				values, err := client.GetHash(hash)
				if err != nil {
					return err
				}
				printHash(hash, values)
			}

			store, err := client.GetHash(cfg.StoreNamespace)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", color.New(color.Bold).Sprint("Rolling codes"))
			for _, key := range []string{rollingcode.KeyCounter, rollingcode.KeyExpected} {
				v, ok := store[key]
				if !ok {
					v = color.New(color.FgYellow).Sprint("(unset)")
				}
				fmt.Printf("  %-10s %s\n", key, v)
			}
			return nil
		},
	}
}

func printHash(name string, values map[string]string) {
	fmt.Printf("%s\n", color.New(color.Bold).Sprint(name))
	if len(values) == 0 {
		fmt.Printf("  %s\n", color.New(color.FgRed).Sprint("no state published"))
		return
	}

	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		fmt.Printf("  %-16s %s\n", f, stateColor(f, values[f]))
	}
}

func stateColor(field, value string) string {
	if field != "state" {
		return value
	}
	switch value {
	case string(types.GateStateIdle):
		return color.New(color.FgGreen).Sprint(value)
	case string(types.GateStateSenderOtaRequest):
		return color.New(color.FgCyan).Sprint(value)
	default:
		return color.New(color.FgYellow).Sprint(value)
	}
}
