package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	owner      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docassist",
		Short: "Summarize the parts of your documents that answer a question",
		Long: `docassist splits uploaded documents into chunks, embeds them, and answers
questions by summarizing the chunks most similar to the question.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/docassist/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.owner, "owner", defaultOwner(), "owner of created documents")

	cmd.AddCommand(
		newIngestCmd(opts),
		newQueryCmd(opts),
		newSuggestCmd(opts),
		newNotesCmd(opts),
		newDocumentsCmd(opts),
		newDeleteCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// withApp runs fn with a fully wired app and closes it afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts.configPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
