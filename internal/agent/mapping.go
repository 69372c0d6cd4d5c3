package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"termagent/internal/client"
)

// ResponseType tells the formatter how to phrase a command's output.
type ResponseType string

const (
	ResponseCount  ResponseType = "count"
	ResponseList   ResponseType = "list"
	ResponseStatus ResponseType = "status"
	ResponseInfo   ResponseType = "info"
	ResponseText   ResponseType = "text"
)

// Mapping is a shell command that answers a question about the environment.
type Mapping struct {
	Command     string       `json:"command"`
	Description string       `json:"description"`
	Type        ResponseType `json:"response_type"`

	// Subject names what the output is about, e.g. "Python files".
	Subject string `json:"-"`
	// Header is true when the first output line is a column header.
	Header bool `json:"-"`
	// LongListing is true for "ls -l" style output.
	LongListing bool `json:"-"`
}

type queryRule struct {
	match   []*regexp.Regexp // all must match
	mapping Mapping
}

func rule(m Mapping, patterns ...string) queryRule {
	r := queryRule{mapping: m}
	for _, p := range patterns {
		r.match = append(r.match, regexp.MustCompile(`(?i)`+p))
	}
	return r
}

var queryRules = []queryRule{
	rule(Mapping{Command: "ls *.py 2>/dev/null | wc -l", Description: "Counting Python files in the current directory", Type: ResponseCount, Subject: "Python files"},
		`\bpython\b|\.py\b`, `\bfiles?\b|\bcount\b|\bhow many\b`),
	rule(Mapping{Command: "ls -1 | wc -l", Description: "Counting files in the current directory", Type: ResponseCount, Subject: "files"},
		`\bfiles?\b`, `\bcount\b|\bhow many\b|\bnumber of\b`),
	rule(Mapping{Command: "du -sh .", Description: "Measuring the size of the current directory", Type: ResponseInfo, Subject: "directory size"},
		`\bsize\b|\bhow big\b|\bhow large\b`, `\bdirectory\b|\bfolder\b|\bproject\b|\bhere\b`),
	rule(Mapping{Command: "git branch --show-current", Description: "Showing the current git branch", Type: ResponseInfo, Subject: "git branch"},
		`\bbranch\b`, `\bcurrent\b|\bwhich\b|\bwhat branch\b|\bam i on\b`),
	rule(Mapping{Command: "git branch -a", Description: "Listing all git branches", Type: ResponseList, Subject: "git branches"},
		`\bbranch(es)?\b`),
	rule(Mapping{Command: "git log --oneline -10", Description: "Showing recent commits", Type: ResponseList, Subject: "recent commits"},
		`\bcommits?\b|\bgit log\b|\bhistory\b`, `\bgit\b|\brecent\b|\blast\b|\bcommits\b`),
	rule(Mapping{Command: "git status", Description: "Showing git repository status", Type: ResponseStatus, Subject: "git status"},
		`\bgit\b|\brepo(sitory)?\b|\buncommitted\b|\bstaged\b`, `\bstatus\b|\bstate\b|\bchanges?\b|\bmodified\b|\buncommitted\b|\bstaged\b`),
	rule(Mapping{Command: "docker ps", Description: "Listing running Docker containers", Type: ResponseList, Subject: "running Docker containers", Header: true},
		`\bdocker\b|\bcontainers?\b`, `\bcontainers?\b`, `\brunning\b|\bup\b|\bactive\b`),
	rule(Mapping{Command: "docker ps -a", Description: "Listing Docker containers", Type: ResponseList, Subject: "Docker containers", Header: true},
		`\bdocker\b|\bcontainers?\b`, `\bcontainers?\b`),
	rule(Mapping{Command: "docker images", Description: "Listing Docker images", Type: ResponseList, Subject: "Docker images", Header: true},
		`\bdocker\b`, `\bimages?\b`),
	rule(Mapping{Command: "lsof -nP -iTCP -sTCP:LISTEN", Description: "Listing listening TCP ports", Type: ResponseList, Subject: "listening ports", Header: true},
		`\bports?\b|\blistening\b`),
	rule(Mapping{Command: "ps aux | head -20", Description: "Listing running processes", Type: ResponseList, Subject: "processes", Header: true},
		`\bprocess(es)?\b|\bwhat is running\b|\bwhat's running\b`),
	rule(Mapping{Command: "df -h .", Description: "Showing disk usage", Type: ResponseStatus, Subject: "disk usage"},
		`\bdisk\b|\bspace\b|\bstorage\b`),
	rule(Mapping{Command: "pwd", Description: "Showing the current directory", Type: ResponseInfo, Subject: "directory"},
		`\b(current|working|which) (directory|folder)\b|\bwhere am i\b|\bpwd\b`),
	rule(Mapping{Command: "ls -la", Description: "Listing files in the current directory", Type: ResponseList, Subject: "entries in this directory", LongListing: true},
		`\bfiles?\b|\blist\b|\bdirector(y|ies)\b|\bfolders?\b|\bcontents\b|\bwhat's here\b|\bin here\b`),
}

// MapQuery maps a question about the environment to a read-only command
// without a model. It returns false when no rule applies.
func MapQuery(question string) (Mapping, bool) {
	for _, r := range queryRules {
		ok := true
		for _, re := range r.match {
			if !re.MatchString(question) {
				ok = false
				break
			}
		}
		if ok {
			return r.mapping, true
		}
	}
	return Mapping{}, false
}

const mappingPrompt = `You are a shell command expert. Given a question about the user's machine, pick the single shell command that answers it.
Return ONLY a JSON object:
{"command": "the command", "description": "what it does", "response_type": "count|list|status|info|text"}
Commands must be read-only and work in bash.

Examples:
"how many python files?" -> {"command": "ls *.py 2>/dev/null | wc -l", "description": "Counting Python files in the current directory", "response_type": "count"}
"what git branch am I on?" -> {"command": "git branch --show-current", "description": "Showing the current git branch", "response_type": "info"}
"show running containers" -> {"command": "docker ps", "description": "Listing running Docker containers", "response_type": "list"}`

// parseMapping reads a model answer written in the mappingPrompt format.
func parseMapping(answer string) (Mapping, error) {
	raw := client.ExtractJSON(answer)
	if raw == "" {
		return Mapping{}, fmt.Errorf("no JSON found in model response")
	}
	var m Mapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Mapping{}, fmt.Errorf("failed to parse model JSON response: %w", err)
	}
	m.Command = strings.TrimSpace(m.Command)
	if m.Command == "" {
		return Mapping{}, fmt.Errorf("model response has no command")
	}
	switch m.Type {
	case ResponseCount, ResponseList, ResponseStatus, ResponseInfo:
	default:
		m.Type = ResponseText
	}
	if m.Description == "" {
		m.Description = m.Command
	}
	return m, nil
}
