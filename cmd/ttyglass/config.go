package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Gaurav-Gosain/ttyglass/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	var force bool
	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration file to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return resetConfigToDefaults(cmd, force)
		},
	}
	configResetCmd.Flags().BoolVarP(&force, "yes", "y", false, "Overwrite without asking")

	configCmd.AddCommand(configPathCmd, configResetCmd)
	return configCmd
}

// configPath returns --config or the XDG location.
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.GetConfigPath()
}

// loadConfig loads the configuration, falling back to defaults when no
// path can be determined.
func loadConfig() (*config.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults(cmd *cobra.Command, force bool) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "Warning: This will overwrite your existing configuration at:\n")
		fmt.Fprintf(out, "  %s\n\n", path)
		fmt.Fprintf(out, "Are you sure you want to reset to defaults? (yes/no): ")

		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			fmt.Fprintln(out, "Reset cancelled.")
			return nil
		}
	}

	if err := config.Write(path, config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration reset to defaults\n")
	fmt.Fprintf(out, "  Location: %s\n", path)
	return nil
}
