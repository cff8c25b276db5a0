package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-pilot/internal/core"
)

var (
	explainFeedback string
	explainLanguage string
	styleStrictness string
)

var explainCmd = &cobra.Command{
	Use:     "explain <file|->",
	Short:   "Explain one piece of review feedback in detail",
	Example: `  pilot-cli explain main.go --feedback "Possible nil dereference in handler"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		language, err := languageHint(explainLanguage, src.name)
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		explanation, err := services.Assistant.Explain(cmd.Context(), src.code, explainFeedback, language)
		if err != nil {
			return fmt.Errorf("explain failed: %s", core.UserMessage(err))
		}
		fmt.Println(explanation)
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <file|->",
	Short: "Detect the language of a snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		language, err := services.Assistant.DetectLanguage(cmd.Context(), src.code)
		if err != nil {
			return fmt.Errorf("detection failed: %s", core.UserMessage(err))
		}
		if language == "" {
			warnColor.Println("Could not detect a supported language.")
			return nil
		}
		fmt.Println(language)
		return nil
	},
}

var styleCmd = &cobra.Command{
	Use:   "style <file|->",
	Short: "List style improvements for a snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strictness, err := core.ParseStrictness(styleStrictness)
		if err != nil {
			return err
		}
		src, err := readSource(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		language, err := languageHint(explainLanguage, src.name)
		if err != nil {
			return err
		}
		services, cleanup, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		suggestions, err := services.Assistant.StyleSuggestions(cmd.Context(), src.code, language, strictness)
		if err != nil {
			return fmt.Errorf("style check failed: %s", core.UserMessage(err))
		}
		if len(suggestions) == 0 {
			successColor.Println("✅ No style suggestions.")
			return nil
		}
		for _, s := range suggestions {
			infoColor.Printf("• %s\n", strings.TrimSpace(s))
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	explainCmd.Flags().StringVarP(&explainFeedback, "feedback", "f", "", "the feedback item to explain")
	explainCmd.Flags().StringVarP(&explainLanguage, "language", "l", "", "source language")
	_ = explainCmd.MarkFlagRequired("feedback")

	styleCmd.Flags().StringVarP(&explainLanguage, "language", "l", "", "source language")
	styleCmd.Flags().StringVarP(&styleStrictness, "strictness", "s", string(core.StrictnessModerate), "lenient, moderate or strict")

	rootCmd.AddCommand(explainCmd, detectCmd, styleCmd)
}
