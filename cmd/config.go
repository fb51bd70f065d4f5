package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/config"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func errUnknownKey(key string) error {
	closest := lo.MinBy(lo.Keys(config.Default), func(a string, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})

	return errors.New(fmt.Sprintf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(closest),
	))
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func configFilePath() string {
	return filepath.Join(where.Config(), constant.App+".toml")
}

// writeConfig saves viper's state, creating the file on first use.
func writeConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

// parseValue converts raw to the type of the key's default.
func parseValue(key string, raw []string) (any, error) {
	switch config.Default[key].Value.(type) {
	case string:
		return raw[0], nil
	case int:
		v, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw[0])
		}
		return v, nil
	case bool:
		v, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw[0])
		}
		return v, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported type for %s", key)
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Only show these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe configuration keys with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			keys   = lo.Must(cmd.Flags().GetStringSlice("key"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
			fields = lo.Values(config.Default)
		)

		if len(keys) > 0 {
			fields = make([]config.Field, 0, len(keys))
			for _, key := range keys {
				field, ok := config.Default[key]
				if !ok {
					handleErr(errUnknownKey(key))
				}
				fields = append(fields, field)
			}
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if asJson {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(lo.ToSlicePtr(fields)))
			return
		}

		for i, field := range fields {
			cmd.Print(field.Pretty())
			if i < len(fields)-1 {
				cmd.Print("\n\n")
			}
		}
		cmd.Println()
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value...>",
	Short:             "Set a configuration key",
	Example:           "  seamui config set player.path vlc\n  seamui config set poll.interval 30",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		if _, ok := config.Default[key]; !ok {
			handleErr(errUnknownKey(key))
		}

		v, err := parseValue(key, args[1:])
		handleErr(err)

		viper.Set(key, v)
		handleErr(writeConfig())

		cmd.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(key),
			style.Fg(color.Yellow)(fmt.Sprintf("%v", v)),
		)
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the value of a configuration key",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		if _, ok := config.Default[args[0]]; !ok {
			handleErr(errUnknownKey(args[0]))
		}

		cmd.Println(viper.Get(args[0]))
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current configuration to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFilePath()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if exists, _ := filesystem.API().Exists(path); exists {
				handleErr(filesystem.API().Remove(path))
			}
		}

		handleErr(viper.SafeWriteConfig())
		cmd.Printf("%s wrote config to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete the config file",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configFilePath()))
		cmd.Printf("%s deleted config\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)

	configResetCmd.Flags().StringP("key", "k", "", "Key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	configResetCmd.MarkFlagsOneRequired("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration keys to their defaults",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			key = lo.Must(cmd.Flags().GetString("key"))
			all = lo.Must(cmd.Flags().GetBool("all"))
		)

		if all {
			for k, field := range config.Default {
				viper.Set(k, field.Value)
			}
		} else {
			field, ok := config.Default[key]
			if !ok {
				handleErr(errUnknownKey(key))
			}
			viper.Set(key, field.Value)
		}

		handleErr(writeConfig())

		if all {
			cmd.Printf("%s reset all config values\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		cmd.Printf(
			"%s reset %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(key),
			style.Fg(color.Yellow)(fmt.Sprintf("%v", config.Default[key].Value)),
		)
	},
}
