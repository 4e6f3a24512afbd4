package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// writeOutput renders a result to stdout in the configured format
func writeOutput(v any) error {
	switch viper.GetString("output_format") {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML output: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	case "json", "":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s", viper.GetString("output_format"))
	}
}
