package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Level is the safety level assigned to a shell command.
type Level string

const (
	LevelSafe    Level = "safe"
	LevelCaution Level = "caution"
	LevelBlocked Level = "blocked"
)

// rule is one check. Literal rules match a lowercase substring, the others
// a regular expression against the trimmed command.
type rule struct {
	literal string
	re      *regexp.Regexp
	reason  string
}

func (r rule) match(trimmed, lower string) bool {
	if r.re != nil {
		return r.re.MatchString(trimmed)
	}
	return strings.Contains(lower, r.literal)
}

func (r rule) pattern() string {
	if r.re != nil {
		return r.re.String()
	}
	return r.literal
}

func literals(reason string, subs ...string) []rule {
	rules := make([]rule, len(subs))
	for i, s := range subs {
		rules[i] = rule{literal: strings.ToLower(s), reason: reason}
	}
	return rules
}

func regex(reason, expr string) rule {
	return rule{re: regexp.MustCompile(expr), reason: reason}
}

func defaultBlocked() []rule {
	var rules []rule
	rules = append(rules, literals("deletes the root or home directory",
		"rm -rf /", "rm -fr /", "rm -rf ~", "rm -rf $HOME", "rm -rf ${HOME}")...)
	rules = append(rules, literals("writes to a raw disk",
		"mkfs.", "mkfs ", "> /dev/sda", "> /dev/nvme",
		"dd if=/dev/zero of=/dev/sd", "dd if=/dev/urandom of=/dev/sd")...)
	rules = append(rules, literals("changes ownership of the whole filesystem",
		"chmod -R 777 /", "chmod 777 /", "chown -R root /")...)
	rules = append(rules, literals("opens a reverse shell",
		"nc -e", "ncat -e", "/dev/tcp/", "/dev/udp/")...)
	rules = append(rules, literals("reads private credentials",
		"/etc/shadow", ".ssh/id_rsa", ".ssh/id_ed25519", ".aws/credentials")...)
	rules = append(rules, literals("modifies the kernel or boot loader",
		"insmod ", "rmmod ", "/proc/sys", "grub-install")...)

	return append(rules,
		regex("fork bomb", `:\s*\(\s*\)\s*\{`),
		regex("fork bomb", `\$\{?0\}?\s*[&|]\s*\$\{?0\}?`),
		regex("spawns processes without bound", `while\s+true\s*;\s*do.*&`),
		regex("deletes the root directory", `rm\s+(-[rRf]+\s+)+/(\s|$|\*)`),
		regex("deletes a path taken from a variable", `rm\s+(-[rRf]+\s+)+\$`),
		regex("writes to a raw disk", `dd\s+.*of=/dev/([snhv]d|nvme)`),
		regex("pipes a download into a shell", `(?i)(wget|curl)\s+.*\|\s*(ba)?sh\b`),
		regex("runs decoded data as a script", `base64\s+-d.*\|\s*(ba)?sh\b`),
		regex("pipes input into a shell", `\byes\s*\|\s*sh\b`),
		regex("adds an SSH key", `echo\s+.*>>\s*.*authorized_keys`),
		regex("edits the system crontab", `echo\s+.*>>\s*/etc/cron`),
		regex("injects a shared library", `LD_PRELOAD=.*\.so`),
	)
}

func defaultCaution() []rule {
	return []rule{
		regex("runs as root", `\bsudo\b`),
		regex("deletes files", `\brm\s+-[a-zA-Z]*[rf]`),
		regex("rewrites git history or discards work", `\bgit\s+(push\s+.*--force|reset\s+--hard|clean\s+-[a-z]*f)`),
		regex("contains escaped bytes", `\\x[0-9a-fA-F]{2}`),
		regex("contains escaped bytes", `\\[0-7]{3}`),
		regex("evaluates a constructed string", `\beval\b`),
		regex("writes under /etc", `>\s*/etc/`),
		regex("removes docker resources", `\bdocker\s+(rm|rmi|system\s+prune|volume\s+(rm|prune)|container\s+prune|image\s+prune)\b`),
		regex("changes cluster resources", `\bkubectl\s+(delete|drain|cordon|replace\s+--force)\b`),
	}
}

// CommandValidator checks shell commands before they reach bash.
// Blocked commands never run; caution-level commands run after the user is
// told why they are risky.
type CommandValidator struct {
	blocked []rule
	caution []rule
}

// NewCommandValidator creates a validator with the default rules. extra
// adds blocked substrings from the shell config.
func NewCommandValidator(extra ...string) *CommandValidator {
	cv := &CommandValidator{blocked: defaultBlocked(), caution: defaultCaution()}
	for _, e := range extra {
		if e = strings.TrimSpace(e); e != "" {
			cv.blocked = append(cv.blocked, literals("blocked by configuration", e)...)
		}
	}
	return cv
}

// ValidationResult contains the result of command validation.
type ValidationResult struct {
	Valid   bool
	Level   Level
	Reason  string
	Pattern string // the rule that matched, if any
}

// Validate checks if a command is safe to execute.
func (cv *CommandValidator) Validate(command string) ValidationResult {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return ValidationResult{Level: LevelBlocked, Reason: "empty command"}
	}
	lower := strings.ToLower(trimmed)

	for _, r := range cv.blocked {
		if r.match(trimmed, lower) {
			return ValidationResult{Level: LevelBlocked, Reason: r.reason, Pattern: r.pattern()}
		}
	}
	for _, r := range cv.caution {
		if r.match(trimmed, lower) {
			return ValidationResult{Valid: true, Level: LevelCaution, Reason: r.reason, Pattern: r.pattern()}
		}
	}
	return ValidationResult{Valid: true, Level: LevelSafe}
}

// AddBlockedPattern blocks commands matching the regular expression.
func (cv *CommandValidator) AddBlockedPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	cv.blocked = append(cv.blocked, rule{re: re, reason: "blocked by configuration"})
	return nil
}
