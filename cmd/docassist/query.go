package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const noContent = "No relevant content found."

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "query TEXT...",
		Short: "Summarize the chunks most similar to the question as bullet points",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				s, err := a.registry.Open(cmd.Context(), documentID)
				if err != nil {
					return err
				}
				out, err := s.Query(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				if out == "" {
					out = noContent
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document to query")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var documentID string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "suggest TEXT...",
		Short: "List the chunks most similar to the text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				s, err := a.registry.Open(cmd.Context(), documentID)
				if err != nil {
					return err
				}
				results, err := s.Suggest(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(results)
				}
				if len(results) == 0 {
					fmt.Fprintln(w, noContent)
					return nil
				}
				for i, r := range results {
					fmt.Fprintf(w, "[%d] (%.3f) %s\n", i+1, r.Score, r.ChunkText)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document to search")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newNotesCmd(opts *rootOptions) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Summarize a whole document as bullet points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				s, err := a.registry.Open(cmd.Context(), documentID)
				if err != nil {
					return err
				}
				out, err := s.Notes(cmd.Context())
				if err != nil {
					return err
				}
				if out == "" {
					out = noContent
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&documentID, "document", "d", "", "document to summarize")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}
