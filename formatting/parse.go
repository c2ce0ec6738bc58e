package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrParseFailed is returned when content holds no JSON that decodes into the target.
var ErrParseFailed = errors.New("failed to parse response")

var (
	jsonBlockRegex  = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")
	jsonObjectRegex = regexp.MustCompile(`(?s)[\{\[].*[\}\]]`)
)

// Parse decodes content as JSON into T. Models often wrap JSON in a markdown fence or
// surround it with prose, so a fenced block and then the outermost {...} or [...] span are tried next.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		cleaned := strings.TrimSpace(matches[1])
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
			return result, nil
		}
	}

	if span := jsonObjectRegex.FindString(content); span != "" {
		if err := json.Unmarshal([]byte(span), &result); err == nil {
			return result, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
