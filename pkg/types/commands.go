package types

import "strings"

// NormalizeCommand canonicalizes a command string for matching: lowercase,
// leading "*" stripped, and trailing status words ("completed",
// "successfully") dropped.
func NormalizeCommand(cmd string) string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	cmd = strings.TrimPrefix(cmd, "*")

	fields := strings.Fields(cmd)
	for len(fields) > 0 {
		last := fields[len(fields)-1]
		if last == "completed" || last == "successfully" {
			fields = fields[:len(fields)-1]
			continue
		}
		break
	}
	return strings.Join(fields, " ")
}

// TokenizeCommand splits a normalized command into word stems on
// non-alphanumeric boundaries.
func TokenizeCommand(cmd string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range strings.ToLower(cmd) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
