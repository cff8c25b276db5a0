package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/llm"
	"github.com/sevigo/code-pilot/internal/review"
)

var (
	reviewLanguage   string
	reviewStrictness string
	reviewOutput     string
	skipValidation   bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <file|->",
	Short: "Review a source file and print feedback and the improved code",
	Long: `Review a source file of any length.

Long files are split into chunks and every chunk is reviewed in order; the
improved code is assembled across as many model calls as it needs.

Examples:
  pilot-cli review main.go
  pilot-cli review --strictness strict --out fixed.py script.py
  cat handler.ts | pilot-cli review -l typescript -`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringVarP(&reviewLanguage, "language", "l", "", "source language (detected when omitted)")
	reviewCmd.Flags().StringVarP(&reviewStrictness, "strictness", "s", string(core.StrictnessModerate), "lenient, moderate or strict")
	reviewCmd.Flags().StringVarP(&reviewOutput, "out", "o", "", "write the improved code to this file")
	reviewCmd.Flags().BoolVar(&skipValidation, "no-validate", false, "skip checking that the code matches the language")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{totalSteps: totalSteps, verbose: verbose}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\n🔧 Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   └── %s\n", d)
		}
	}
}

func (t *stepTimer) info(format string, args ...any) {
	if t.verbose {
		dimColor.Printf("   ├── "+format+"\n", args...)
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	strictness, err := core.ParseStrictness(reviewStrictness)
	if err != nil {
		return err
	}

	src, err := readSource(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	timer := newStepTimer(3, verbose)
	overallStart := time.Now()

	titleColor.Println("🚀 Code-Pilot - Review")
	dimColor.Printf("   Source: %s (%d lines)\n\n", src.name, strings.Count(src.code, "\n")+1)

	timer.step("Initializing")
	services, cleanup, err := initServices(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	timer.done()

	timer.step("Resolving language")
	language, err := resolveLanguage(ctx, services, src)
	if err != nil {
		return err
	}
	timer.done(language)

	req := core.ReviewRequest{Code: src.code, Language: language, Strictness: strictness}
	timer.step("Reviewing")
	outcome, err := review.Run(ctx, services.Reviewer, req, progressPrinter(timer))
	if err != nil {
		return fmt.Errorf("review failed: %s", core.UserMessage(err))
	}
	timer.done()

	if verbose {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	printFeedback(outcome.Feedback)
	if reviewOutput != "" {
		if err := os.WriteFile(reviewOutput, []byte(outcome.CorrectedCode), 0o644); err != nil {
			return fmt.Errorf("failed to write improved code: %w", err)
		}
		successColor.Printf("\n✅ Improved code written to %s\n", reviewOutput)
	} else {
		printCode(outcome.CorrectedCode)
	}
	if outcome.Record != nil {
		dimColor.Printf("\nSaved to library as #%d (%s)\n", outcome.Record.ID, outcome.Record.Title)
	}
	return nil
}

func resolveLanguage(ctx context.Context, services *app.Services, src source) (string, error) {
	language, err := languageHint(reviewLanguage, src.name)
	if err != nil {
		return "", err
	}
	if language == "" {
		language, err = services.Assistant.DetectLanguage(ctx, src.code)
		if err != nil {
			return "", fmt.Errorf("language detection failed: %s", core.UserMessage(err))
		}
		if language == "" {
			return "", fmt.Errorf("could not detect the language; pass --language")
		}
		return language, nil
	}

	if !skipValidation {
		if check := services.Assistant.ValidateLanguage(ctx, src.code, language); !check.Valid {
			return "", fmt.Errorf("%s", check.Message)
		}
	}
	return language, nil
}

func progressPrinter(timer *stepTimer) func(core.Event) {
	return func(ev core.Event) {
		switch ev.Kind {
		case core.EventLoadingFirst:
			timer.info("chunk 1/%d: generating feedback", ev.ChunkCount)
		case core.EventLoadingContinuation:
			timer.info("chunk %d/%d", ev.ChunkIndex+1, ev.ChunkCount)
		case core.EventPartial:
			if verbose {
				dimColor.Printf("   │   %d characters of improved code\n", len(ev.Code))
			}
		}
	}
}

func printFeedback(feedback string) {
	separator := strings.Repeat("═", 60)
	thinSeparator := strings.Repeat("─", 60)

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("📋 REVIEW FEEDBACK")
	titleColor.Println(separator)

	sections := llm.ParseFeedbackSections(feedback)
	if len(sections) == 0 {
		fmt.Println()
		successColor.Println("✅ No feedback returned.")
		return
	}

	for _, s := range sections {
		fmt.Println()
		warnColor.Println(thinSeparator)
		warnColor.Printf("💡 %s\n", strings.ToUpper(s.Title))
		warnColor.Println(thinSeparator)
		for _, line := range s.Lines {
			infoColor.Println(line)
		}
	}
}

func printCode(code string) {
	fmt.Println()
	boldColor.Println("✨ IMPROVED CODE")
	dimColor.Println(strings.Repeat("─", 60))
	fmt.Println(code)
}
