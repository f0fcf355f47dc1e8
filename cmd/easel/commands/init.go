package commands

import (
	"errors"

	"github.com/dyluth/easel/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter easel.yml for easeld",
	Long: `Write easel.yml with every server setting at its default, ready to edit.

easeld reads easel.yml from its working directory, or the file named by
EASEL_CONFIG. Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing easel.yml")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to write easel.yml into")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	p, _, err := setup(cmd)
	if err != nil {
		return err
	}

	path, err := scaffold.Initialize(initDir, forceInit)
	if errors.Is(err, scaffold.ErrExists) {
		return p.Error("already initialized", err.Error(), nil, []string{"Use 'easel init --force' to overwrite it"})
	}
	if err != nil {
		return err
	}

	p.Success("Created %s\n", path)
	p.Info("\nNext steps:\n")
	p.Info("  1. Point redis.url at your Redis, or leave it to run in memory\n")
	p.Info("  2. Start the server: easeld\n")
	p.Info("  3. Create a session: easel session\n")
	return nil
}
