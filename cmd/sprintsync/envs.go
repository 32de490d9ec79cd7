package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foospace/sprintsync/internal/config"
)

// envView is an environment as shown to the operator. The token itself is
// never printed, only whether its variable is set.
type envView struct {
	config.Environment `yaml:",inline"`
	TokenSet           bool `yaml:"token_set" json:"token_set"`
}

type envsOutput struct {
	Origin       string             `yaml:"origin" json:"origin"`
	ConfigFile   string             `yaml:"config_file,omitempty" json:"config_file,omitempty"`
	Settings     config.Settings    `yaml:"settings" json:"settings"`
	Environments map[string]envView `yaml:"environments" json:"environments"`
}

var envsCmd = &cobra.Command{
	Use:     "envs",
	GroupID: "setup",
	Short:   "Show configured environments and settings",
	Long: `Prints the effective settings and every environment of the map read from
` + config.ConfigsEnvVar + ` (or the environments section of the config file).
Tokens are redacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := envsOutput{
			Origin:       appCfg.EnvironmentsOrigin(),
			ConfigFile:   appCfg.ConfigFile(),
			Settings:     appCfg.Settings,
			Environments: map[string]envView{},
		}
		if out.Origin == "" {
			out.Origin = "none"
		}
		for _, name := range appCfg.EnvironmentNames() {
			env, _ := appCfg.Environment(name)
			_, set := os.LookupEnv(env.TokenVariableName)
			out.Environments[name] = envView{Environment: env, TokenSet: set && env.TokenVariableName != ""}
		}

		if jsonOutput {
			outputJSON(out)
			return
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			exitRunError(fmt.Errorf("encode: %w", err))
		}
		_ = enc.Close()
		if len(out.Environments) == 0 {
			fmt.Fprintf(os.Stderr, "No environments configured; set %s or add an environments section to the config file.\n", config.ConfigsEnvVar)
		}
	},
}

func init() {
	rootCmd.AddCommand(envsCmd)
}
