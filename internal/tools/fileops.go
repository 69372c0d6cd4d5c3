package tools

import (
	"regexp"
	"strings"
)

var plainWord = regexp.MustCompile(`^[\w./@%+=:,~-]+$`)

// Quote quotes s for bash when it contains anything but plain path
// characters.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if plainWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type fileRequest struct {
	re    *regexp.Regexp
	build func(m []string) string
}

func pathArgs(cmd string) func([]string) string {
	return func(m []string) string {
		parts := []string{cmd}
		for _, arg := range m[1:] {
			parts = append(parts, Quote(unquote(arg)))
		}
		return strings.Join(parts, " ")
	}
}

var fileRequests = []fileRequest{
	{regexp.MustCompile(`(?i)^move (?:the )?(?:file |folder |directory )?(.+?) (?:to|into) (.+)$`), pathArgs("mv")},
	{regexp.MustCompile(`(?i)^rename (?:the )?(?:file |folder |directory )?(.+?) to (.+)$`), pathArgs("mv")},
	{regexp.MustCompile(`(?i)^copy (?:the )?(?:folder |directory )(.+?) (?:to|into) (.+)$`), pathArgs("cp -r")},
	{regexp.MustCompile(`(?i)^copy (?:the )?(?:file )?(.+?) (?:to|into) (.+)$`), pathArgs("cp")},
	{regexp.MustCompile(`(?i)^(?:delete|remove) (?:the )?(?:folder|directory) (.+)$`), pathArgs("rm -r")},
	{regexp.MustCompile(`(?i)^(?:delete|remove) (?:the )?file (.+)$`), pathArgs("rm")},
	{regexp.MustCompile(`(?i)^(?:create|make|new) (?:a )?(?:new )?(?:empty )?file (?:called |named )?(\S+)$`), pathArgs("touch")},
	{regexp.MustCompile(`(?i)^(?:create|make|new) (?:a )?(?:new )?(?:folder|directory|dir) (?:called |named )?(\S+)$`), pathArgs("mkdir -p")},
	{regexp.MustCompile(`(?i)^(?:where am i|(?:show )?(?:the )?(?:current|working) directory)$`), func([]string) string { return "pwd" }},
	{regexp.MustCompile(`(?i)^(?:show|list) (?:all|hidden) files$`), func([]string) string { return "ls -la" }},
}

// FileCommand turns a plain file request such as "rename a.txt to b.txt"
// into a command without a model. It returns false for anything else.
func FileCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if HasShellOperators(text) {
		return "", false
	}
	for _, r := range fileRequests {
		if m := r.re.FindStringSubmatch(text); m != nil {
			return r.build(m), true
		}
	}
	return "", false
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
