package llm

import (
	"regexp"
	"strings"
)

// FeedbackSection is one category of review feedback.
type FeedbackSection struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type feedbackCategory struct {
	id    string
	title string
	match *regexp.Regexp
}

var feedbackCategories = []feedbackCategory{
	{"bugs", "Syntax Errors, Bugs & Exceptions", regexp.MustCompile(`(?i)^(1\.|Syntax Errors, Bugs, or possible exceptions)`)},
	{"style", "Readability & Maintainability", regexp.MustCompile(`(?i)^(2\.|Best practices for readability and maintainability)`)},
	{"security", "Security Risks", regexp.MustCompile(`(?i)^(3\.|Highlight any security risks)`)},
	{"optimizations", "Optimizations", regexp.MustCompile(`(?i)^(4\.|Suggest optimizations)`)},
}

// SummarySectionID holds lines that precede the first numbered heading.
const SummarySectionID = "summary"

// ParseFeedbackSections groups review feedback by its numbered headings.
// Heading text after the number stays as the first line of its section.
// Empty sections are omitted; order follows the category order.
func ParseFeedbackSections(feedback string) []FeedbackSection {
	feedback = stripMarkdownFence(feedback)
	if strings.TrimSpace(feedback) == "" {
		return nil
	}

	summary := FeedbackSection{ID: SummarySectionID, Title: "Summary"}
	sections := make([]FeedbackSection, len(feedbackCategories))
	for i, c := range feedbackCategories {
		sections[i] = FeedbackSection{ID: c.id, Title: c.title}
	}

	current := -1
	for line := range strings.SplitSeq(feedback, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matched := false
		for i, c := range feedbackCategories {
			if c.match.MatchString(line) {
				current = i
				if rest := strings.TrimSpace(c.match.ReplaceAllString(line, "")); rest != "" {
					sections[i].Lines = append(sections[i].Lines, rest)
				}
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if current < 0 {
			summary.Lines = append(summary.Lines, line)
			continue
		}
		sections[current].Lines = append(sections[current].Lines, line)
	}

	out := make([]FeedbackSection, 0, len(sections)+1)
	if len(summary.Lines) > 0 {
		out = append(out, summary)
	}
	for _, s := range sections {
		if len(s.Lines) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// stripMarkdownFence removes ```markdown ... ``` wrapping that some models add around their output.
func stripMarkdownFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```markdown") && !strings.HasPrefix(trimmed, "```md") {
		return s
	}
	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
