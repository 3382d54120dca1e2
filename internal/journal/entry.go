package journal

import "strings"

const multiLineSeparator = "-----"

// FormatEntry appends a new entry to the current journal content. A
// single-line entry becomes a bullet item; a multi-line entry is set off
// by a horizontal rule.
func FormatEntry(current, entry string) string {
	if countLines(entry) <= 1 {
		return current + "\n- " + entry
	}
	return current + "\n" + multiLineSeparator + "\n" + entry
}

// countLines counts non-empty lines.
func countLines(s string) int {
	count := 0
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			count++
		}
	}
	return count
}
