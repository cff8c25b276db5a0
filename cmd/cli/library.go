package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-pilot/internal/core"
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Browse, search and manage saved reviews",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reviews, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := services.Library.List(cmd.Context())
		if err != nil {
			return err
		}
		printRecords(records)
		return nil
	},
}

var libraryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseReviewID(args[0])
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := services.Library.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		titleColor.Printf("#%d %s\n", rec.ID, rec.Title)
		dimColor.Printf("%s · %s · %s\n", formatTimestamp(rec.Timestamp), rec.Language, rec.Strictness)
		if rec.Feedback != nil {
			printFeedback(*rec.Feedback)
		}
		if rec.CorrectedCode != nil {
			printCode(*rec.CorrectedCode)
		}
		return nil
	},
}

var libraryRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a saved review",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseReviewID(args[0])
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		title := strings.Join(args[1:], " ")
		if err := services.Library.Rename(cmd.Context(), id, title); err != nil {
			return err
		}
		successColor.Printf("✅ Review #%d renamed to %q\n", id, strings.TrimSpace(title))
		return nil
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseReviewID(args[0])
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := services.Library.Delete(cmd.Context(), id); err != nil {
			return err
		}
		successColor.Printf("✅ Review #%d deleted\n", id)
		return nil
	},
}

var librarySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find saved reviews that match a natural-language query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := services.Library.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search failed: %s", core.UserMessage(err))
		}
		printRecords(records)
		return nil
	},
}

var libraryReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index from the library (vector search mode only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := services.Library.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		successColor.Printf("✅ Indexed %d reviews\n", n)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	libraryCmd.AddCommand(libraryListCmd, libraryShowCmd, libraryRenameCmd, libraryDeleteCmd, librarySearchCmd, libraryReindexCmd)
	rootCmd.AddCommand(libraryCmd)
}

func parseReviewID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid review id %q", s)
	}
	return id, nil
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func printRecords(records []core.ReviewRecord) {
	if len(records) == 0 {
		dimColor.Println("No reviews found.")
		return
	}
	for _, r := range records {
		boldColor.Printf("#%-14d", r.ID)
		infoColor.Printf(" %s", r.Title)
		dimColor.Printf("  %s · %s · %s\n", formatTimestamp(r.Timestamp), r.Language, r.Strictness)
	}
}
