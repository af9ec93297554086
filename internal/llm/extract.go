package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	thinkBlock = regexp.MustCompile(`<think>[\s\S]*?</think>`)
)

// ExtractJSON pulls the JSON payload out of a model response. It tries,
// in order: a fenced ```json block, the first balanced {...} object
// after stripping <think> blocks, and finally the text as-is.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	text = strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))

	start := strings.IndexByte(text, '{')
	if start != -1 {
		depth := 0
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return strings.TrimSpace(text[start : i+1])
				}
			}
		}
	}
	return text
}

// DecodeJSON extracts and unmarshals the JSON payload into v.
func DecodeJSON(text string, v any) error {
	payload := ExtractJSON(text)
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("failed to decode llm json output: %w", err)
	}
	return nil
}
