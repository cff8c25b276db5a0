package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/code-pilot/internal/llm"
)

// source is the code under review and where it came from.
type source struct {
	name string
	code string
}

// readSource reads path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) (source, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return source{name: path, code: string(data)}, nil
}

// languageHint resolves the language from an explicit flag or the file
// extension. It returns "" when neither decides it.
func languageHint(flagValue, name string) (string, error) {
	if flagValue != "" {
		lang := strings.ToLower(strings.TrimSpace(flagValue))
		if !llm.IsSupportedLanguage(lang) {
			return "", fmt.Errorf("unsupported language %q (supported: %s)", flagValue, strings.Join(llm.LanguageValues(), ", "))
		}
		return lang, nil
	}
	if name == "-" {
		return "", nil
	}
	lang, _ := llm.LanguageFromFilename(filepath.Base(name))
	return lang, nil
}
