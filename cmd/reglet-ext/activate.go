package main

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/reglet/internal/extension"
	"github.com/reglet-dev/reglet/internal/extension/examples/filter"
	"github.com/spf13/cobra"
)

var (
	activateGroup  string
	activateValues string
	activateParams []string
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Show the auto-activated filter chain for a group and URL",
	RunE: func(_ *cobra.Command, _ []string) error {
		bag := extension.NewURL("dubbo", parseParams(activateParams))

		var values []string
		if activateValues != "" {
			values = strings.Split(activateValues, ",")
		}

		chain, err := filter.Loader().Activate(bag, values, activateGroup)
		if err != nil {
			return err
		}
		for _, f := range chain {
			fmt.Println(f.Name())
		}
		return nil
	},
}

func init() {
	activateCmd.Flags().StringVar(&activateGroup, "group", "provider", "activation group")
	activateCmd.Flags().StringVar(&activateValues, "values", "", "comma-separated explicit values (supports -name exclusions and the default splice point)")
	activateCmd.Flags().StringArrayVar(&activateParams, "param", nil, "key=value URL parameter, repeatable")
	rootCmd.AddCommand(activateCmd)
}

func parseParams(raw []string) map[string]string {
	params := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		params[k] = v
	}
	return params
}
