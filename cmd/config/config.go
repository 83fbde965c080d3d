package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-docfs/pkg/coordinator"
	"github.com/mattsolo1/grove-docfs/pkg/migration"
	"github.com/mattsolo1/grove-docfs/pkg/service"
	"github.com/mattsolo1/grove-docfs/pkg/store"
)

// DefaultQuotaBytes matches the storage limit of the browser build.
const DefaultQuotaBytes = 5 * 1024 * 1024

var cfgFile string

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "docfs")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("DOCFS")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "docfs"))
	viper.SetDefault("editor", os.Getenv("EDITOR"))
	viper.SetDefault("quota_bytes", DefaultQuotaBytes)
	viper.SetDefault("debounce", coordinator.DefaultDebounce)
	viper.SetDefault("filesystem_key", store.DefaultKey)
	viper.SetDefault("legacy_key", migration.DefaultLegacyKey)
	viper.SetDefault("ephemeral", false)

	// A missing config file is normal; defaults apply.
	_ = viper.ReadInConfig()
}

// ServiceConfig maps the loaded settings onto the service.
func ServiceConfig() *service.Config {
	return &service.Config{
		DataDir:       viper.GetString("data_dir"),
		Editor:        viper.GetString("editor"),
		QuotaBytes:    viper.GetInt64("quota_bytes"),
		Debounce:      viper.GetDuration("debounce"),
		FilesystemKey: viper.GetString("filesystem_key"),
		LegacyKey:     viper.GetString("legacy_key"),
		Ephemeral:     viper.GetBool("ephemeral"),
	}
}

func InitService(opts ...service.Option) (*service.Service, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel) // Keep it quiet unless there are issues.
	if viper.GetBool("debug") {
		logger.SetLevel(logrus.DebugLevel)
	}

	opts = append([]service.Option{
		service.WithLogger(logrus.NewEntry(logger).WithField("app", "docfs")),
	}, opts...)

	svc, err := service.New(ServiceConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service: %w", err)
	}
	return svc, nil
}

// AddGlobalFlags registers the flags every command shares.
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/docfs/config.yaml)")
	flags.String("data-dir", "", "directory holding the document database")
	flags.Bool("ephemeral", false, "keep documents in memory only")
	flags.Bool("debug", false, "enable debug logging")
}

// BindFlags ties the flags of the command being run to their settings.
func BindFlags(cmd *cobra.Command) error {
	for key, name := range map[string]string{
		"data_dir":  "data-dir",
		"ephemeral": "ephemeral",
		"debug":     "debug",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
