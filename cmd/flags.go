package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how listing commands print their results.
type OutputFormat string

// Supported output formats.
const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

var validFormats = []OutputFormat{OutputTable, OutputJSON, OutputYAML}

var _ pflag.Value = (*OutputFormat)(nil)

func (f *OutputFormat) String() string { return string(*f) }

// Set rejects anything but the supported formats.
func (f *OutputFormat) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, valid := range validFormats {
		if OutputFormat(v) == valid {
			*f = valid
			return nil
		}
	}
	names := make([]string, len(validFormats))
	for i, valid := range validFormats {
		names[i] = string(valid)
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s", v, strings.Join(names, ", "))
}

// Type is shown in help output.
func (f *OutputFormat) Type() string { return "format" }

// addOutputFlag registers --output/-o on cmd.
func addOutputFlag(cmd *cobra.Command, f *OutputFormat) {
	*f = OutputTable
	cmd.Flags().VarP(f, "output", "o", "Output format (table|json|yaml)")
}

// writeStructured encodes v as JSON or YAML. It reports false for the
// table format so the caller can print its own table.
func writeStructured(w io.Writer, format OutputFormat, v interface{}) (bool, error) {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case OutputYAML:
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

// SetViperBindings binds flags to viper configuration keys.
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) {
	for flagName, configKey := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			_ = viper.BindPFlag(configKey, flag)
		}
	}
}
