package utils

// Truncate shortens s to maxLen characters and appends "..." when it is
// longer than that. Lengths count runes so multibyte text is never split.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
