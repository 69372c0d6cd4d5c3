package tools

import (
	"os"
	"strings"
)

// knownCommands are recognized even before the PATH scan finishes.
var knownCommands = map[string]bool{
	// files and directories
	"ls": true, "ll": true, "la": true, "cd": true, "pwd": true, "mkdir": true, "rmdir": true,
	"rm": true, "cp": true, "mv": true, "touch": true, "ln": true, "chmod": true, "chown": true,
	"find": true, "tree": true, "du": true, "df": true, "stat": true, "file": true,
	// text
	"cat": true, "less": true, "more": true, "head": true, "tail": true, "grep": true,
	"rg": true, "sed": true, "awk": true, "sort": true, "uniq": true, "wc": true, "cut": true,
	"tr": true, "diff": true, "echo": true, "printf": true, "xargs": true, "tee": true,
	// processes and system
	"ps": true, "top": true, "htop": true, "kill": true, "pkill": true, "killall": true,
	"uname": true, "whoami": true, "who": true, "which": true, "whereis": true, "env": true,
	"export": true, "source": true, "alias": true, "history": true, "date": true, "uptime": true,
	"free": true, "lsof": true, "sudo": true, "man": true, "clear": true,
	// network
	"curl": true, "wget": true, "ping": true, "ssh": true, "scp": true, "rsync": true,
	"netstat": true, "ss": true,
	// archives
	"tar": true, "zip": true, "unzip": true, "gzip": true, "gunzip": true,
	// development
	"git": true, "make": true, "go": true, "python": true, "python3": true, "pip": true,
	"pip3": true, "node": true, "npm": true, "npx": true, "yarn": true, "pnpm": true,
	"cargo": true, "rustc": true, "java": true, "mvn": true, "gradle": true, "docker": true,
	"docker-compose": true, "kubectl": true, "helm": true, "terraform": true,
	"vim": true, "nvim": true, "nano": true, "code": true,
}

// proseStarters read as English even when a binary of the same name exists
// (ImageMagick ships "compare", for example).
var proseStarters = map[string]bool{
	"compare": true, "explain": true, "describe": true, "tell": true, "analyze": true,
	"analyse": true, "what": true, "how": true, "why": true, "when": true, "where": true,
	"please": true, "show": true, "list": true, "summarize": true,
}

// Recognizer reports whether a word names something runnable.
type Recognizer struct {
	cache *ExecutableCache
}

// NewRecognizer creates a recognizer. cache may be nil.
func NewRecognizer(cache *ExecutableCache) *Recognizer {
	return &Recognizer{cache: cache}
}

// IsCommand reports whether name is a known command, a path to an
// executable, or an executable on $PATH.
func (r *Recognizer) IsCommand(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if knownCommands[name] {
		return true
	}
	if strings.ContainsRune(name, '/') {
		info, err := os.Stat(name)
		return err == nil && !info.IsDir() && info.Mode()&0111 != 0
	}
	if proseStarters[name] {
		return false
	}
	return r.cache != nil && r.cache.Has(name)
}
