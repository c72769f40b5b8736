package main

import (
	"fmt"
	"os"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/reglet-dev/reglet/internal/extension"
	"github.com/reglet-dev/reglet/internal/extension/examples/filter"
	"github.com/reglet-dev/reglet/internal/extension/examples/greeter"
	"github.com/reglet-dev/reglet/internal/extension/examples/transporter"
	"github.com/reglet-dev/reglet/internal/version"
	"github.com/spf13/cobra"
)

var (
	describeCapability string
	describeName       string
	describeFormat     string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Resolve a name (or the default/adaptive instance) for a capability",
	RunE: func(_ *cobra.Command, _ []string) error {
		loadErrs, err := loadErrors(describeCapability)
		if err != nil {
			return err
		}

		if describeFormat == "sarif" {
			return describeSARIF(describeCapability, loadErrs)
		}

		result, err := describeOne(describeCapability, describeName)
		if err != nil {
			return err
		}
		fmt.Println(result)
		for name, loadErr := range loadErrs {
			fmt.Printf("warning: %s: %v\n", name, loadErr)
		}
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeCapability, "capability", "greeter", "capability to describe: greeter, transporter, filter")
	describeCmd.Flags().StringVar(&describeName, "name", "true", `extension name to resolve ("true" for the SPI default, "adaptive" for the synthesized dispatcher)`)
	describeCmd.Flags().StringVar(&describeFormat, "format", "text", "output format: text or sarif")
	rootCmd.AddCommand(describeCmd)
}

func describeOne(capability, name string) (string, error) {
	switch capability {
	case "greeter":
		g, err := greeter.Loader().Get(name)
		if err != nil {
			return "", err
		}
		if g == nil {
			return "(no default configured)", nil
		}
		return g.Greet(), nil
	case "transporter":
		if name == "adaptive" {
			adaptive, err := transporter.Loader().Adaptive()
			if err != nil {
				return "", err
			}
			return adaptive.Connect(extension.NewURL("dubbo", nil))
		}
		t, err := transporter.Loader().Get(name)
		if err != nil {
			return "", err
		}
		return t.Connect(extension.NewURL("dubbo", map[string]string{"client": name}))
	case "filter":
		f, err := filter.Loader().Get(name)
		if err != nil {
			return "", err
		}
		if f == nil {
			return "(no default configured)", nil
		}
		return f.Name(), nil
	default:
		return "", fmt.Errorf("unknown capability %q (want greeter, transporter, or filter)", capability)
	}
}

func loadErrors(capability string) (map[string]error, error) {
	switch capability {
	case "greeter":
		return greeter.Loader().Errors()
	case "transporter":
		return transporter.Loader().Errors()
	case "filter":
		return filter.Loader().Errors()
	default:
		return nil, fmt.Errorf("unknown capability %q (want greeter, transporter, or filter)", capability)
	}
}

// describeSARIF reports per-name load/registration failures as a SARIF
// 2.1.0 run, one result per failed name, so a CI pipeline can surface
// malformed manifests the same way it surfaces any other static finding.
func describeSARIF(capability string, loadErrs map[string]error) error {
	report := sarif.NewReport()
	run := sarif.NewRunWithInformationURI("reglet-ext", "https://reglet.dev")
	v := version.Get().String()
	run.Tool.Driver.Version = &v

	for name, loadErr := range loadErrs {
		result := sarif.NewRuleResult("extension-load-error")
		result.Message = sarif.NewTextMessage(fmt.Sprintf("%s/%s: %s", capability, name, loadErr.Error()))
		run.AddResult(result)
	}
	report.AddRun(run)
	return report.Write(os.Stdout)
}
