package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Dumps the merged configuration (file, environment, defaults) as YAML with credentials redacted.",
	RunE: func(_ *cobra.Command, _ []string) error {
		dump := *cfg
		dump.Gemini.Key = redact(dump.Gemini.Key)
		dump.Gemini.Keys = redact(dump.Gemini.Keys)
		dump.Anthropic.Key = redact(dump.Anthropic.Key)
		dump.Anthropic.Keys = redact(dump.Anthropic.Keys)

		out, err := yaml.Marshal(dump)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}

		fmt.Fprint(os.Stdout, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// redact keeps a short identifying prefix so operators can tell which
// credential is loaded without exposing it.
func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "<redacted>"
	}
	return s[:8] + "..."
}
