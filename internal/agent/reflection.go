package agent

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"termagent/internal/tools"
)

// Reflector analyzes failed commands and proposes alternatives.
type Reflector struct {
	patterns []ErrorPattern
}

// ErrorPattern matches an error and knows how to recover from it.
type ErrorPattern struct {
	Pattern     *regexp.Regexp
	ExitCode    int // matches on exit code alone when non-zero
	Category    string
	Suggestion  string
	ShouldRetry bool
	Alternative func(c parsedCommand) []string
}

// Reflection is the analysis of one failed command.
type Reflection struct {
	Command      string
	Error        string
	ExitCode     int
	Category     string
	Suggestion   string
	ShouldRetry  bool
	Alternatives []string // never empty
}

// NewReflector creates a reflector with the built-in error patterns.
func NewReflector() *Reflector {
	return &Reflector{patterns: defaultErrorPatterns()}
}

// AddPattern registers a custom pattern ahead of the built-in ones.
func (r *Reflector) AddPattern(p ErrorPattern) {
	r.patterns = append([]ErrorPattern{p}, r.patterns...)
}

// Analyze examines a failed command. The result always carries at least one
// alternative command.
func (r *Reflector) Analyze(command, errorText string, exitCode int) *Reflection {
	ref := &Reflection{
		Command:  command,
		Error:    strings.TrimSpace(errorText),
		ExitCode: exitCode,
	}
	parsed := parseCommand(command)
	lower := strings.ToLower(errorText)

	for _, p := range r.patterns {
		matched := (p.Pattern != nil && p.Pattern.MatchString(lower)) ||
			(p.ExitCode != 0 && p.ExitCode == exitCode)
		if !matched {
			continue
		}
		ref.Category = p.Category
		ref.Suggestion = p.Suggestion
		ref.ShouldRetry = p.ShouldRetry
		if p.Alternative != nil {
			ref.Alternatives = p.Alternative(parsed)
		}
		break
	}

	if ref.Category == "" {
		ref.Category = "unknown"
		ref.Suggestion = "The command failed for an unrecognized reason. Check its usage."
	}
	ref.Alternatives = finalizeAlternatives(ref.Alternatives, command, ref.ShouldRetry, parsed)
	return ref
}

// Explain renders the reflection for the terminal.
func (ref *Reflection) Explain() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", strings.ReplaceAll(ref.Category, "_", " "), ref.Suggestion)
	sb.WriteString("Try:\n")
	for _, alt := range ref.Alternatives {
		sb.WriteString("  " + alt + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func finalizeAlternatives(alts []string, command string, allowSame bool, c parsedCommand) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range alts {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] || (!allowSame && a == strings.TrimSpace(command)) {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	if len(out) == 0 {
		if c.name != "" {
			out = append(out, c.name+" --help")
		} else {
			out = append(out, "ls -la")
		}
	}
	return out
}

// parsedCommand is the first simple command of a command line.
type parsedCommand struct {
	line   string
	name   string
	args   []string
	target string // last non-flag argument
}

var segmentEnd = regexp.MustCompile(`\s*(?:&&|\|\||[|;])\s*`)

func parseCommand(line string) parsedCommand {
	line = strings.TrimSpace(line)
	first := segmentEnd.Split(line, 2)[0]
	fields := strings.Fields(first)
	c := parsedCommand{line: line}
	if len(fields) == 0 {
		return c
	}
	c.name = fields[0]
	c.args = fields[1:]
	for i := len(c.args) - 1; i >= 0; i-- {
		if !strings.HasPrefix(c.args[i], "-") {
			c.target = strings.Trim(c.args[i], `"'`)
			break
		}
	}
	return c
}

func inspectTarget(c parsedCommand) []string {
	if c.target == "" {
		return []string{"ls -la"}
	}
	dir := path.Dir(c.target)
	base := path.Base(c.target)
	return []string{
		"ls -la " + tools.Quote(dir),
		"find . -maxdepth 3 -iname " + tools.Quote("*"+base+"*"),
	}
}

// defaultErrorPatterns returns the built-in error patterns, most specific first.
func defaultErrorPatterns() []ErrorPattern {
	return []ErrorPattern{
		{
			Pattern:    regexp.MustCompile(`command not found|executable file not found|no such (program|command|binary)|unknown command`),
			ExitCode:   127,
			Category:   "command_not_found",
			Suggestion: "The program is not on $PATH. Check the spelling or install it.",
			Alternative: func(c parsedCommand) []string {
				return []string{
					"compgen -c | grep -i -- " + tools.Quote(c.name) + " | sort -u | head",
					"type -a " + tools.Quote(c.name),
				}
			},
		},
		{
			Pattern:     regexp.MustCompile(`timed out|deadline exceeded`),
			ExitCode:    124,
			Category:    "timeout",
			Suggestion:  "The command took too long. Run it in the background and follow its log.",
			ShouldRetry: true,
			Alternative: func(c parsedCommand) []string {
				log := "/tmp/termagent-" + path.Base(c.name) + ".log"
				return []string{"nohup " + c.line + " > " + log + " 2>&1 &"}
			},
		},
		{
			Pattern:    regexp.MustCompile(`not a git repository`),
			Category:   "git_error",
			Suggestion: "This directory is not inside a git repository.",
			Alternative: func(parsedCommand) []string {
				return []string{"git init", "git rev-parse --show-toplevel"}
			},
		},
		{
			Pattern:    regexp.MustCompile(`merge conflict|automatic merge failed|unmerged paths`),
			Category:   "git_error",
			Suggestion: "There are merge conflicts. Resolve them or abort the merge.",
			Alternative: func(parsedCommand) []string {
				return []string{"git status", "git merge --abort"}
			},
		},
		{
			Pattern:    regexp.MustCompile(`has no upstream branch`),
			Category:   "git_error",
			Suggestion: "The branch has no upstream yet.",
			Alternative: func(parsedCommand) []string {
				return []string{"git push -u origin HEAD"}
			},
		},
		{
			Pattern:    regexp.MustCompile(`\[rejected\]|non-fast-forward|fetch first`),
			Category:   "git_error",
			Suggestion: "The remote has commits you do not have. Integrate them first.",
			Alternative: func(parsedCommand) []string {
				return []string{"git pull --rebase && git push"}
			},
		},
		{
			Pattern:    regexp.MustCompile(`nothing to commit`),
			Category:   "git_error",
			Suggestion: "There are no staged changes.",
			Alternative: func(parsedCommand) []string {
				return []string{"git status", `git add . && git commit -m "Update"`}
			},
		},
		{
			Pattern:    regexp.MustCompile(`permission denied|operation not permitted|eacces|eperm|access denied`),
			ExitCode:   126,
			Category:   "permission_denied",
			Suggestion: "Permission was denied. Check the file mode or run with elevated privileges.",
			Alternative: func(c parsedCommand) []string {
				alts := []string{"sudo " + c.line}
				if c.target != "" {
					alts = append([]string{"ls -l " + tools.Quote(c.target)}, alts...)
				}
				return alts
			},
		},
		{
			Pattern:    regexp.MustCompile(`file exists|already exists`),
			Category:   "already_exists",
			Suggestion: "The target already exists.",
			Alternative: func(c parsedCommand) []string {
				if c.name == "mkdir" {
					return []string{"mkdir -p " + strings.Join(c.args, " ")}
				}
				return []string{"ls -la " + tools.Quote(c.target)}
			},
		},
		{
			Pattern:     regexp.MustCompile(`no such file|not found|does not exist|cannot access|cannot find|could not find|enoent|not a directory`),
			Category:    "file_not_found",
			Suggestion:  "The file or directory does not exist. Check the path or search for it.",
			Alternative: inspectTarget,
		},
		{
			Pattern:    regexp.MustCompile(`no space left|disk (is )?full|enospc`),
			Category:   "resource_error",
			Suggestion: "The disk is full. Free up space first.",
			Alternative: func(parsedCommand) []string {
				return []string{"df -h", "du -sh * | sort -h | tail"}
			},
		},
		{
			Pattern:     regexp.MustCompile(`connection refused|could not resolve|network is unreachable|connection reset|temporary failure in name resolution`),
			Category:    "network_error",
			Suggestion:  "A network connection failed. Check that the service is reachable and retry.",
			ShouldRetry: true,
			Alternative: func(c parsedCommand) []string {
				return []string{c.line}
			},
		},
		{
			Pattern:    regexp.MustCompile(`invalid option|unrecognized option|illegal option|unknown option|invalid argument|usage:|syntax error`),
			Category:   "invalid_args",
			Suggestion: "The arguments were not accepted. Check the command's usage.",
			Alternative: func(c parsedCommand) []string {
				return []string{c.name + " --help", "man " + c.name}
			},
		},
	}
}
