package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/foospace/sprintsync/internal/sprint"
	"github.com/foospace/sprintsync/internal/tracker"
	"github.com/foospace/sprintsync/internal/types"
)

var osLookupEnv = os.LookupEnv

// Environment is one named block of the environment map.
type Environment struct {
	tracker.Databases `mapstructure:",squash" yaml:",inline"`

	TokenVariableName string              `mapstructure:"TOKEN_VARIABLE_NAME" yaml:"token_variable_name"`
	CompletedStatuses []string            `mapstructure:"COMPLETED_STATUSES" yaml:"completed_statuses"`
	Properties        types.PropertyNames `mapstructure:"PROPERTIES" yaml:"properties,omitempty"`
	CurrentStatus     string              `mapstructure:"CURRENT_STATUS" yaml:"current_status,omitempty"`
}

// environments is the parsed map plus how it was obtained.
type environments struct {
	byName map[string]Environment
	// origin is ConfigsEnvVar, "config file" or "" when nothing is configured.
	origin string
	err    error
}

func (c *Config) loadEnvironments() environments {
	if raw, ok := c.lookupEnv(ConfigsEnvVar); ok && strings.TrimSpace(raw) != "" {
		byName, err := parseEnvironmentsJSON(raw)
		return environments{byName: byName, origin: ConfigsEnvVar, err: err}
	}
	if c.v.IsSet("environments") {
		var byName map[string]Environment
		if err := c.v.UnmarshalKey("environments", &byName); err != nil {
			return environments{origin: "config file", err: err}
		}
		return environments{byName: lowerKeys(byName), origin: "config file"}
	}
	return environments{}
}

// parseEnvironmentsJSON decodes the NOTION_CONFIGS_JSON document.
func parseEnvironmentsJSON(raw string) (map[string]Environment, error) {
	ev := viper.New()
	ev.SetConfigType("json")
	if err := ev.ReadConfig(strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigsEnvVar, err)
	}
	var byName map[string]Environment
	if err := ev.Unmarshal(&byName); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ConfigsEnvVar, err)
	}
	return lowerKeys(byName), nil
}

func lowerKeys(in map[string]Environment) map[string]Environment {
	out := make(map[string]Environment, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

// ReloadEnvironments re-reads the environment map. Runs already resolved
// keep the values they were given.
func (c *Config) ReloadEnvironments() error {
	envs := c.loadEnvironments()
	c.mu.Lock()
	c.envs = envs
	c.mu.Unlock()
	return envs.err
}

// EnvironmentNames returns the configured environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.envs.byName))
	for name := range c.envs.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environment returns one block by (case-insensitive) name.
func (c *Config) Environment(name string) (Environment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	env, ok := c.envs.byName[strings.ToLower(name)]
	return env, ok
}

// EnvironmentsOrigin reports where the environment map came from.
func (c *Config) EnvironmentsOrigin() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.envs.origin
}

// Resolved is everything one run needs, fixed at trigger time.
type Resolved struct {
	Source  tracker.SourceConfig
	Options tracker.RunOptions
}

// Resolve validates trigger parameters against the environment map. Errors
// are *types.ConfigError: caller faults map to 400, deployment faults to 500.
func (c *Config) Resolve(envName, modeName, department string) (*Resolved, error) {
	if envName == "" {
		return nil, types.RequestError("'env' parameter is required.")
	}
	envName = strings.ToLower(envName)

	mode, ok := sprint.ParseMode(strings.ToLower(modeName))
	if !ok {
		return nil, types.RequestError("Invalid mode '%s'. Use 'current' or 'backfill'.", modeName)
	}

	c.mu.RLock()
	envs := c.envs
	c.mu.RUnlock()
	switch {
	case envs.origin == "":
		return nil, types.DeploymentError("%s is not set.", ConfigsEnvVar)
	case envs.err != nil:
		return nil, types.DeploymentError("Error during configuration setup: %v", envs.err)
	}

	env, ok := envs.byName[envName]
	if !ok {
		return nil, types.RequestError("Config for env '%s' not found.", envName)
	}
	if env.TokenVariableName == "" {
		return nil, types.DeploymentError("TOKEN_VARIABLE_NAME not defined for env '%s'.", envName)
	}
	token, _ := c.lookupEnv(env.TokenVariableName)
	if token == "" {
		return nil, types.DeploymentError("Token environment variable '%s' is not set.", env.TokenVariableName)
	}
	if env.Sprints == "" || env.Tasks == "" || env.Projects == "" {
		return nil, types.DeploymentError("Missing one or more database IDs in config.")
	}

	if department == "" {
		department = types.DefaultDepartment
	}
	return &Resolved{
		Source: tracker.SourceConfig{
			Token:      token,
			APIVersion: c.NotionAPIVersion,
			BaseURL:    c.NotionBaseURL,
		},
		Options: tracker.RunOptions{
			Env:               envName,
			Mode:              mode,
			Department:        department,
			Databases:         env.Databases,
			CompletedStatuses: types.NewStatusSet(env.CompletedStatuses...),
			Properties:        env.Properties.WithDefaults(),
			CurrentStatus:     env.CurrentStatus,
		},
	}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
