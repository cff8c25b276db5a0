package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNoJSON = errors.New("response did not contain a JSON object")

// decodeModelJSON extracts the first JSON object from a model answer and
// decodes it into v. Models often wrap their answer in a ```json fence or
// surround it with prose, and sometimes emit invalid escapes such as "\s".
func decodeModelJSON(raw string, v any) error {
	extracted, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(sanitizeJSON(extracted)), v); err != nil {
		return fmt.Errorf("failed to decode model JSON: %w", err)
	}
	return nil
}

func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if json.Valid([]byte(raw)) {
		return raw, nil
	}

	// Only unwrap a fence around the whole answer; fences inside JSON strings
	// belong to the payload.
	if strings.HasPrefix(raw, "```") {
		raw = stripCodeFence(raw)
		if json.Valid([]byte(raw)) {
			return raw, nil
		}
	}

	startBrace := strings.Index(raw, "{")
	if startBrace == -1 {
		return "", errNoJSON
	}
	raw = raw[startBrace:]

	// Decode the first complete value and ignore whatever trails it.
	decoder := json.NewDecoder(strings.NewReader(sanitizeJSON(raw)))
	var msg json.RawMessage
	if err := decoder.Decode(&msg); err != nil {
		return "", fmt.Errorf("failed to decode JSON from response: %w", err)
	}
	return string(msg), nil
}

// stripCodeFence returns the content of the outermost ``` fence, dropping an
// info string such as "json" or "python" on the opening line.
func stripCodeFence(raw string) string {
	startFence := strings.Index(raw, "```")
	if startFence == -1 {
		return raw
	}
	endFence := strings.LastIndex(raw, "```")
	if endFence <= startFence {
		return raw
	}
	inner := raw[startFence+3 : endFence]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], " {[\"") {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

// sanitizeJSON escapes stray backslashes that are not valid JSON escapes.
func sanitizeJSON(input string) string {
	if json.Valid([]byte(input)) {
		return input
	}

	var sb strings.Builder
	sb.Grow(len(input) + 16)

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		if char != '\\' {
			sb.WriteRune(char)
			continue
		}
		if i+1 >= len(runes) {
			sb.WriteString(`\\`)
			break
		}
		switch next := runes[i+1]; next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			sb.WriteRune(char)
			sb.WriteRune(next)
			i++
		default:
			sb.WriteString(`\\`)
		}
	}
	return sb.String()
}
