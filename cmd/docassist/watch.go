package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docassist/internal/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Ingest files as they are added to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				s, err := openOrCreate(cmd, a, documentID, opts.owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "watching %s into document %s\n", args[0], s.ID())

				w, err := watcher.New(watcher.Config{
					Dir:    args[0],
					Accept: func(name string) bool { return a.extractors.Supports(name) == nil },
					Logger: a.log,
					Handle: func(ctx context.Context, path string) error {
						content, err := os.ReadFile(path)
						if err != nil {
							return err
						}
						chunks, err := s.Ingest(ctx, filepath.Base(path), content)
						if err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", filepath.Base(path), len(chunks))
						return nil
					},
				})
				if err != nil {
					return err
				}
				return w.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "existing document to append to")
	return cmd
}
