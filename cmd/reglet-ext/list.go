package main

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet/internal/extension/examples/filter"
	"github.com/reglet-dev/reglet/internal/extension/examples/greeter"
	"github.com/reglet-dev/reglet/internal/extension/examples/transporter"
	"github.com/spf13/cobra"
)

var listCapability string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the names registered for a bundled example capability",
	RunE: func(_ *cobra.Command, _ []string) error {
		names, err := supportedNames(listCapability)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		slog.Debug("listed capability", "capability", listCapability, "count", len(names))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listCapability, "capability", "greeter", "capability to list: greeter, transporter, filter")
	rootCmd.AddCommand(listCmd)
}

func supportedNames(capability string) ([]string, error) {
	switch capability {
	case "greeter":
		return greeter.Loader().SupportedNames()
	case "transporter":
		return transporter.Loader().SupportedNames()
	case "filter":
		return filter.Loader().SupportedNames()
	default:
		return nil, fmt.Errorf("unknown capability %q (want greeter, transporter, or filter)", capability)
	}
}
