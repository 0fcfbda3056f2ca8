package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/headercvt/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .headercvt/config.yaml with default settings",
	Long: `Create the .headercvt directory and a config.yaml holding the default
settings in the current directory.

Examples:
  headercvt init          # Initialize in current directory
  headercvt init --force  # Overwrite an existing config.yaml`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	existing := filepath.Join(cwd, config.ConfigDirName, config.ConfigFileName)
	if _, err := os.Stat(existing); err == nil && !initForce {
		// Not forcing, so report status and exit cleanly
		relPath, _ := filepath.Rel(cwd, existing)
		fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", relPath)
		return nil
	}

	path, err := config.SaveDefault(cwd, initForce)
	if err != nil {
		return err
	}

	relPath, _ := filepath.Rel(cwd, path)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", relPath)
	return nil
}
