package git

import (
	"regexp"
	"strings"
)

// ConvertPrompt asks a model to turn a natural git request into one command.
const ConvertPrompt = `Convert natural language to Git commands. Return only the command, nothing else.

Examples:
- "check status" -> "git status"
- "add all files" -> "git add ."
- "commit with message update" -> "git commit -m \"update\""
- "push to remote" -> "git push"
- "commit and push" -> "git add . && git commit -m \"Auto-commit\" && git push"`

type rewrite struct {
	re    *regexp.Regexp
	build func(m []string) string
}

func fixed(cmd string) func([]string) string {
	return func([]string) string { return cmd }
}

var rewrites = []rewrite{
	{regexp.MustCompile(`(?i)^commit and push$`), fixed(`git add . && git commit -m "Auto-commit" && git push`)},
	{regexp.MustCompile(`(?i)^(?:add,? )?commit,? and push (?:with message |-m )(.+)$`), func(m []string) string {
		return "git add . && git commit -m " + quote(m[1]) + " && git push"
	}},
	{regexp.MustCompile(`(?i)^pull and push$`), fixed("git pull && git push")},
	{regexp.MustCompile(`(?i)^(?:check |show )?(?:the )?(?:git |repo )?status$`), fixed("git status")},
	{regexp.MustCompile(`(?i)^(?:stage|add) (?:all|everything)(?: files| changes)?$`), fixed("git add .")},
	{regexp.MustCompile(`(?i)^commit (?:with message |-m )(.+)$`), func(m []string) string {
		return "git commit -m " + quote(m[1])
	}},
	{regexp.MustCompile(`(?i)^push(?: to)?(?: origin| remote| upstream)?$`), fixed("git push")},
	{regexp.MustCompile(`(?i)^pull(?: from)?(?: origin| remote| upstream)?$`), fixed("git pull")},
	{regexp.MustCompile(`(?i)^(?:create|make|new) (?:a )?(?:new )?branch (?:called |named )?([\w./-]+)$`), func(m []string) string {
		return "git checkout -b " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:switch|checkout|change)(?: to)?(?: branch)? ([\w./-]+)$`), func(m []string) string {
		return "git checkout " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:list |show )?(?:all )?branches$`), fixed("git branch -a")},
	{regexp.MustCompile(`(?i)^(?:show )?(?:the )?(?:recent )?(?:commits|history|log)$`), fixed("git log --oneline -10")},
	{regexp.MustCompile(`(?i)^(?:show )?(?:the )?(?:diff|changes)$`), fixed("git diff")},
	{regexp.MustCompile(`(?i)^stash(?: my)?(?: changes)?$`), fixed("git stash")},
	{regexp.MustCompile(`(?i)^undo (?:the )?last commit$`), fixed("git reset --soft HEAD~1")},
}

// bareSubcommands are run as-is with a git prefix.
var bareSubcommands = map[string]bool{
	"status": true, "add": true, "commit": true, "fetch": true, "merge": true,
	"rebase": true, "checkout": true, "switch": true, "branch": true, "diff": true,
	"tag": true, "remote": true, "clone": true, "init": true, "restore": true,
	"cherry-pick": true, "blame": true, "show": true, "reset": true,
}

// Normalize turns common git requests into a command without a model.
// It returns false when the request needs a model to interpret.
func Normalize(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return "", false
	}
	if lower == "git" || strings.HasPrefix(lower, "git ") {
		return trimmed, true
	}

	for _, r := range rewrites {
		if m := r.re.FindStringSubmatch(trimmed); m != nil {
			return r.build(m), true
		}
	}

	// "checkout -b feat" or "diff --stat": a subcommand followed by flags.
	fields := strings.Fields(lower)
	if bareSubcommands[fields[0]] && (len(fields) == 1 || strings.HasPrefix(fields[1], "-")) {
		return "git " + trimmed, true
	}
	return "", false
}

// EnsurePrefix makes a model answer a git command.
func EnsurePrefix(command string) string {
	command = strings.Trim(strings.TrimSpace(command), "`")
	command = strings.TrimSpace(strings.TrimPrefix(command, "$ "))
	if command == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(command), "git ") && !strings.EqualFold(command, "git") {
		command = "git " + command
	}
	return command
}

func quote(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) >= 2 && (msg[0] == '"' || msg[0] == '\'') && msg[len(msg)-1] == msg[0] {
		msg = msg[1 : len(msg)-1]
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`").Replace(msg) + `"`
}
