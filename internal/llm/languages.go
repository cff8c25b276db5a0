package llm

import (
	"path/filepath"
	"slices"
	"strings"
)

// Language is a selectable review language.
type Language struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Languages lists every language a review can be requested for.
var Languages = []Language{
	{"javascript", "JavaScript"},
	{"python", "Python"},
	{"typescript", "TypeScript"},
	{"java", "Java"},
	{"csharp", "C#"},
	{"go", "Go"},
	{"rust", "Rust"},
	{"php", "PHP"},
	{"ruby", "Ruby"},
	{"cpp", "C++"},
	{"c", "C"},
	{"swift", "Swift"},
	{"kotlin", "Kotlin"},
	{"scala", "Scala"},
	{"html", "HTML"},
	{"css", "CSS"},
	{"sql", "SQL"},
}

var extensionLanguages = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".py":    "python",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".cs":    "csharp",
	".go":    "go",
	".rs":    "rust",
	".php":   "php",
	".rb":    "ruby",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".cc":    "cpp",
	".c":     "c",
	".h":     "c",
	".swift": "swift",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".scala": "scala",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".sql":   "sql",
}

// LanguageValues returns the value of every supported language.
func LanguageValues() []string {
	values := make([]string, len(Languages))
	for i, l := range Languages {
		values[i] = l.Value
	}
	return values
}

// IsSupportedLanguage reports whether value names a supported language.
func IsSupportedLanguage(value string) bool {
	return slices.ContainsFunc(Languages, func(l Language) bool { return l.Value == value })
}

// LanguageFromFilename maps an uploaded file's extension to a language value.
func LanguageFromFilename(name string) (string, bool) {
	lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(name))]
	return lang, ok
}
