package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newDocumentsCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				owner := opts.owner
				if all {
					owner = ""
				}
				infos, err := a.registry.List(cmd.Context(), owner)
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tOWNER\tCHUNKS\tCREATED\tFILES")
				for _, d := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.ID, d.OwnerID, d.ChunkCount,
						d.CreatedAt.Local().Format(time.DateTime), strings.Join(d.SourceFilenames, ", "))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list documents of every owner")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete DOCUMENT_ID",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.registry.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}
