package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nesciens/levitation"
)

// cleanCommand builds the subcommand that deletes conversion state. The
// record, progress and mark files are only needed to resume or extend a
// conversion; once the import is final they are dead weight.
func cleanCommand(log zerolog.Logger) *cobra.Command {
	cfg := levitation.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove conversion state from the working directory",
		Long: `Remove the record files, progress state, mark table and lock file from
the working directory. Run this after an import has fully completed; a
cleaned conversion cannot be resumed or extended with further parts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := levitation.Clean(cfg); err != nil {
				return err
			}
			log.Info().Str("workdir", cfg.WorkDir).Msg("conversion state removed")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "working directory to clean")
	cmd.Flags().StringVar(&cfg.MarksPath, "marks", "", "mark table to remove (default: <workdir>/marks.git)")

	return cmd
}
