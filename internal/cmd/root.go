package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/adversary/internal/config"
	"github.com/Iron-Ham/adversary/internal/errors"
	"github.com/Iron-Ham/adversary/internal/logging"
	"github.com/Iron-Ham/adversary/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "adversary",
	Short: "Adversarial multi-model critique of strategy documents",
	Long: `Adversary sends a strategy document to several language models at once.
Each model either agrees with the document or critiques it and proposes a
revised version. Feed the revision back in for the next round until every
model agrees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// configErr holds a config file that exists but could not be read.
var configErr error

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default is $XDG_CONFIG_HOME/adversary/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	config.SetDefaults()
	configErr = nil

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	// ADVERSARY_DEBATE_MAX_RETRIES for debate.max_retries
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = errors.NewConfigError("failed to read config file", errors.Join(errors.ErrInvalidConfig, err)).
				WithField("config")
		}
	}
}

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
}

// setup loads and validates the configuration and opens the log.
func setup() (*app, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(cfg.LogDir(), cfg.Logging.Level, logging.Options{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Close()
}

// sessionStore opens the configured session backend. The returned close
// function is never nil.
func (a *app) sessionStore() (session.Store, func(), error) {
	switch a.cfg.Session.Backend {
	case config.BackendSQLite:
		store, err := session.OpenSQLiteStore(a.cfg.SessionDatabase())
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store, err := session.NewFileStore(a.cfg.SessionDir())
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() {}, nil
	}
}

// sessionManager opens the session backend and wraps it in a Manager.
func (a *app) sessionManager() (*session.Manager, func(), error) {
	store, closeFn, err := a.sessionStore()
	if err != nil {
		return nil, closeFn, err
	}
	return session.NewManager(store, session.WithLogger(a.logger)), closeFn, nil
}
