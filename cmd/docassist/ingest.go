package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docassist/internal/service"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Add .txt, .pdf or .docx files to a document",
		Long: `Ingests files into a new document, or into an existing one with --document.
Every file name is checked before anything is ingested.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				files := make([]service.File, 0, len(args))
				for _, path := range args {
					if err := a.extractors.Supports(path); err != nil {
						return err
					}
					content, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("reading %s: %w", path, err)
					}
					files = append(files, service.File{Name: filepath.Base(path), Content: content})
				}

				s, err := openOrCreate(cmd, a, documentID, opts.owner)
				if err != nil {
					return err
				}
				chunks, err := s.IngestFiles(cmd.Context(), files)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "document %s: %d chunks from %d files (%d total)\n",
					s.ID(), len(chunks), len(files), s.Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "existing document to append to")
	return cmd
}

func openOrCreate(cmd *cobra.Command, a *app, documentID, owner string) (*service.Session, error) {
	if documentID != "" {
		return a.registry.Open(cmd.Context(), documentID)
	}
	return a.registry.Create(cmd.Context(), owner)
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
