package indexer

import "strings"

// sensitiveKeywords marks chunks that must never enter the index. A chunk
// containing any of these substrings (case-insensitive) is dropped and
// counted in the run stats.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token",
	"activation", "credential", "serial",
	"license", "key", "recovery", "private",
}

func isSensitive(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
