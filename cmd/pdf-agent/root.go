package main

import (
	"github.com/spf13/cobra"
)

type runOptions struct {
	watch      bool
	batch      bool
	configPath string
}

func newRootCommand() *cobra.Command {
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:   "pdf-agent (--watch | --batch) [--config path]",
		Short: "Classify scanned PDFs and file them under a naming scheme",
		Long: "pdf-agent extracts the text of each PDF in the input folder, asks the\n" +
			"configured language model what kind of document it is, and moves it to\n" +
			"a folder and file name built from the document type's templates.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.watch && !opts.batch {
				return cmd.Help()
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	rootCmd.Flags().BoolVar(&opts.watch, "watch", false, "Organize PDFs as they appear in the input folder")
	rootCmd.Flags().BoolVar(&opts.batch, "batch", false, "Organize the PDFs currently in the input folder, then exit")
	rootCmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default $PDF_AGENT_CONFIG or config/config.yaml)")
	rootCmd.MarkFlagsMutuallyExclusive("watch", "batch")

	return rootCmd
}
