package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/adversary/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify adversary configuration",
	Long: `View or modify adversary configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  adversary config set debate.models gpt-5.2,claude-opus-4-5
  adversary config set debate.max_retries 5
  adversary config set session.backend sqlite

Valid keys:
  debate.models        - Default critic roster (comma-separated)
  debate.temperature   - Sampling temperature (0-2)
  debate.max_tokens    - Reply token cap per critic
  debate.max_retries   - Attempts per critic per round (1-10)
  debate.base_delay    - First retry delay, e.g. 1s
  session.backend      - Session store: file, sqlite
  session.dir          - Session directory
  session.checkpoint_dir - Checkpoint directory
  profiles.dir         - Profile directory
  logging.enabled      - Write adversary.log (true/false)
  logging.level        - debug, info, warn, error`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/adversary/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	out := cmd.OutOrStdout()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", used)
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n\n")
	}

	data, err := renderSettings()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// renderSettings returns the effective settings as YAML, without the
// --config flag binding.
func renderSettings() ([]byte, error) {
	settings := viper.AllSettings()
	delete(settings, "config")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to render configuration: %w", err)
	}
	return data, nil
}

func writeConfigFile(path string) error {
	data, err := renderSettings()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// settableKeys maps each key accepted by 'config set' to its value kind.
var settableKeys = map[string]string{
	"debate.models":          "list",
	"debate.temperature":     "float",
	"debate.max_tokens":      "int",
	"debate.max_retries":     "int",
	"debate.base_delay":      "duration",
	"session.backend":        "string",
	"session.dir":            "string",
	"session.checkpoint_dir": "string",
	"profiles.dir":           "string",
	"logging.enabled":        "bool",
	"logging.level":          "string",
}

func parseConfigValue(key, value string) (any, error) {
	kind, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'adversary config set --help' to see valid keys", key)
	}

	switch kind {
	case "list":
		models := cleanModels(strings.Split(value, ","))
		if len(models) == 0 {
			return nil, fmt.Errorf("invalid value for %s: expected at least one model", key)
		}
		return models, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a number", key)
		}
		return f, nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a duration such as 1s", key)
		}
		return d.String(), nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	key, value := args[0], args[1]

	typed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	viper.Set(key, typed)
	// refuse to write a file that the next run would reject
	if _, err := config.Load(); err != nil {
		return err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.ConfigFile()
	}
	if err := writeConfigFile(configFile); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typed)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigFile = `# adversary configuration

# Critic calls
debate:
  # Default roster when --models is not given
  models:
    - gpt-5.2
  # Sampling temperature sent to every critic (0-2)
  temperature: 0.7
  # Reply token cap per critic
  max_tokens: 8000
  # Attempts per critic per round, including the first
  max_retries: 3
  # First retry delay; doubled on every further attempt
  base_delay: 1s

# Prices in USD per million tokens, added to or overriding the built-in table
pricing:
  models: {}
  #  my-finetune:
  #    input: 3.00
  #    output: 15.00

# Session persistence
session:
  # file (one JSON file per session) or sqlite
  backend: file
  # Empty means ~/.config/adversary/sessions
  dir: ""
  # Empty means .adversary-checkpoints in the working directory
  checkpoint_dir: ""

profiles:
  # Empty means ~/.config/adversary/profiles
  dir: ""

# Endpoint overrides, mostly for proxies
providers:
  openai_base_url: ""
  anthropic_base_url: ""
  gemini_base_url: ""
  openai_compatible: {}
  #  xai: https://api.x.ai/v1

logging:
  enabled: true
  # debug, info, warn, error
  level: info
  # Empty means ~/.config/adversary/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'adversary config set' to modify values", configFile)
	}
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, []byte(defaultConfigFile), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize adversary's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}
	fmt.Fprintf(out, "Keys file:     %s\n", config.KeysFile())
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_DEBATE_MAX_RETRIES)\n", config.EnvPrefix, config.EnvPrefix)
	return nil
}
