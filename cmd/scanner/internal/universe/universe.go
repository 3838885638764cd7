// Package universe loads the ticker list a scan should consider.
package universe

import (
	"fmt"
	"os"
	"strings"
)

// Load returns the ticker universe. An inline comma-separated string
// takes precedence; otherwise the file is read, accepting both
// comma-separated and line-separated formats. Tickers are uppercased and
// deduplicated, preserving first-seen order.
func Load(inline, path string) ([]string, error) {
	if strings.TrimSpace(inline) != "" {
		return split(inline, ","), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ticker file %s: %w", path, err)
	}

	text := strings.TrimSpace(string(content))
	if strings.Contains(text, ",") {
		return split(text, ","), nil
	}
	return split(text, "\n"), nil
}

func split(text, sep string) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, part := range strings.Split(text, sep) {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	return tickers
}
