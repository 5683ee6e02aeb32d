package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/personalvault/internal/config"
	"github.com/Aman-CERP/personalvault/internal/output"
)

const redactedToken = "<redacted>"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/personalvault/config.yaml)
  3. Project config (.personalvault.yaml in the working directory)
  4. Environment variables (PERSONALVAULT_*, HUGGINGFACE_TOKEN)

The Hugging Face token is never written to a config file; set
HUGGINGFACE_TOKEN in the environment instead.`,
		Example: `  personalvault config init
  personalvault config show
  personalvault config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Write the effective configuration to the user configuration file.

With --force an existing file is backed up first (the three newest
backups are kept) and rewritten with the current settings plus any
new defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration (after backing it up)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() && !force {
		out.Warning("User configuration already exists")
		out.Statusf("", "Location: %s", configPath)
		out.Status("", "Use --force to rewrite it (a backup is kept)")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backupPath, err := config.BackupConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	if err := cfg.WriteYAML(configPath); err != nil {
		return err
	}

	out.Success("Wrote user configuration")
	out.Statusf("", "Location: %s", configPath)
	if backupPath != "" {
		out.Statusf("", "Backup: %s", backupPath)
	}
	if err := cfg.RequireCredentials(); err != nil {
		out.Warningf("Set %s before running search, chat or serve", config.TokenEnv)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	var cfg *config.Config

	switch source {
	case "merged":
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("invalid source: %s (use: merged, defaults)", source)
	}

	shown := *cfg
	if shown.Embeddings.HuggingFaceToken != "" {
		shown.Embeddings.HuggingFaceToken = redactedToken
	}

	if jsonOutput {
		data, err := json.MarshalIndent(&shown, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "Configuration source: %s", source)
	out.Code(string(data))
	return nil
}
