package security

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// SecretRedactor masks credentials in text before it is sent to a model or
// written to history. Patterns with a group named "secret" mask only that
// group; other patterns mask the whole match.
type SecretRedactor struct {
	patterns []*regexp.Regexp
}

// NewSecretRedactor creates a redactor with patterns for common secrets.
func NewSecretRedactor() *SecretRedactor {
	return &SecretRedactor{
		patterns: []*regexp.Regexp{
			// KEY=value and key: value assignments
			regexp.MustCompile(`(?i)\b[\w.-]*(?:api[_-]?key|access[_-]?key|secret|token|passw(?:or)?d|pwd|credentials?)[\w.-]*\s*[:=]\s*["']?(?P<secret>[^\s"']{8,})`),
			regexp.MustCompile(`(?i)\bBearer\s+(?P<secret>[A-Za-z0-9_\-.=]{10,256})`),
			regexp.MustCompile(`(?i)\bAuthorization:\s*Basic\s+(?P<secret>[A-Za-z0-9+/]{16,}={0,2})`),
			// user:password@host in URLs
			regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s:/@]+:(?P<secret>[^\s@/]+)@`),
			// Provider key formats
			regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_-]{20,}`),
			regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
			regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`),
			regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
			regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`),
			regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
		},
	}
}

// Redact masks every detected secret in text.
func (r *SecretRedactor) Redact(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range r.patterns {
		idx := re.SubexpIndex("secret")
		if idx < 0 {
			text = re.ReplaceAllString(text, redacted)
			continue
		}
		text = replaceGroup(re, idx, text)
	}
	return text
}

func replaceGroup(re *regexp.Regexp, group int, text string) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[2*group], m[2*group+1]
		if start < 0 || strings.HasPrefix(text[start:end], redacted) {
			continue
		}
		sb.WriteString(text[last:start])
		sb.WriteString(redacted)
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// AddPattern adds a custom pattern. Use a group named "secret" to keep the
// surrounding context.
func (r *SecretRedactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.patterns = append(r.patterns, re)
	return nil
}
