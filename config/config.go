// Package config wires defaults, the dotenv file, environment variables and
// the TOML config file into viper.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer turns config keys into env variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup loads configuration in order of increasing precedence:
// defaults, config file, .env file, process environment.
func Setup() error {
	viper.SetConfigName(constant.App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	if err := loadDotenv(where.Env()); err != nil {
		return err
	}

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// loadDotenv exports variables from the dotenv file without overriding
// ones already present in the environment. A missing file is not an error.
func loadDotenv(path string) error {
	f, err := filesystem.API().Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return err
	}

	for k, v := range vars {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}

	return nil
}

// Watch calls onChange whenever the config file is modified on disk.
// It does nothing when no config file was loaded.
func Watch(onChange func(name string)) {
	if viper.ConfigFileUsed() == "" {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
			onChange(e.Name)
		}
	})
	viper.WatchConfig()
}
