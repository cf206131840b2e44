package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csheth/resurch/internal/catalog"
	"github.com/csheth/resurch/internal/logger"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the paper corpus and print ranked results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query must not be empty")
		}
		a, err := newApp(logger.StderrTarget)
		if err != nil {
			return err
		}
		defer logger.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = a.cfg.SearchLimit
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
		defer cancel()
		papers, err := a.catalog.Search(ctx, query, limit)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return printPapers(cmd.OutOrStdout(), papers, asJSON, "No papers found. Try a different query.")
	},
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results to request (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func printPapers(w io.Writer, papers []catalog.Paper, asJSON bool, emptyMessage string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}
	if len(papers) == 0 {
		_, err := fmt.Fprintln(w, emptyMessage)
		return err
	}
	for idx, paper := range papers {
		line := fmt.Sprintf("%2d. %s", idx+1, paper.Title)
		if paper.HasSimilarity() {
			line = fmt.Sprintf("%2d. [%d%% Match] %s", idx+1, paper.MatchPercent(), paper.Title)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		fmt.Fprintf(w, "    id: %s\n", paper.ID)
		if paper.URL != "" {
			fmt.Fprintf(w, "    %s\n", paper.URL)
		}
	}
	return nil
}

func stderrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
