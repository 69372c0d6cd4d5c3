package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapQuery(t *testing.T) {
	tests := []struct {
		question string
		command  string
		typ      ResponseType
	}{
		{"how many python files are there?", "ls *.py 2>/dev/null | wc -l", ResponseCount},
		{"how many files are in here?", "ls -1 | wc -l", ResponseCount},
		{"what files are in this directory?", "ls -la", ResponseList},
		{"what git branch am I on?", "git branch --show-current", ResponseInfo},
		{"show me all branches", "git branch -a", ResponseList},
		{"what is the git status?", "git status", ResponseStatus},
		{"are there uncommitted changes?", "git status", ResponseStatus},
		{"what are the recent commits?", "git log --oneline -10", ResponseList},
		{"which docker containers are running?", "docker ps", ResponseList},
		{"what docker containers exist?", "docker ps -a", ResponseList},
		{"what docker images do I have?", "docker images", ResponseList},
		{"what processes are using the cpu?", "ps aux | head -20", ResponseList},
		{"what is listening on port 8080?", "lsof -nP -iTCP -sTCP:LISTEN", ResponseList},
		{"how much disk space is left?", "df -h .", ResponseStatus},
		{"how big is this folder?", "du -sh .", ResponseInfo},
		{"what is the current directory?", "pwd", ResponseInfo},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			m, ok := MapQuery(tt.question)
			require.True(t, ok)
			assert.Equal(t, tt.command, m.Command)
			assert.Equal(t, tt.typ, m.Type)
		})
	}

	_, ok := MapQuery("what is the meaning of the moon?")
	assert.False(t, ok)
}

func TestParseMapping(t *testing.T) {
	m, err := parseMapping("Sure!\n```json\n{\"command\": \"uptime\", \"description\": \"\", \"response_type\": \"weird\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "uptime", m.Command)
	assert.Equal(t, "uptime", m.Description)
	assert.Equal(t, ResponseText, m.Type)

	_, err = parseMapping(`{"command": "", "response_type": "count"}`)
	assert.Error(t, err)

	_, err = parseMapping("no json here")
	assert.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	python := Mapping{Type: ResponseCount, Subject: "Python files"}
	assert.Equal(t, "There are 3 Python files in this directory.", FormatResult(python, "       3\n"))
	assert.Equal(t, "There is 1 Python file in this directory.", FormatResult(python, "1"))
	assert.Equal(t, "The result is: lots", FormatResult(python, "lots"))

	listing := "total 8\ndrwxr-xr-x 2 me me 4096 Jan 1 00:00 .\ndrwxr-xr-x 9 me me 4096 Jan 1 00:00 ..\n-rw-r--r-- 1 me me 1 Jan 1 00:00 a.txt"
	ls := Mapping{Type: ResponseList, Subject: "entries in this directory", LongListing: true}
	assert.Equal(t, "There are 1 entries in this directory:\n"+listing, FormatResult(ls, listing))

	containers := Mapping{Type: ResponseList, Subject: "Docker containers", Header: true}
	assert.Equal(t, "No Docker containers found.", FormatResult(containers, "CONTAINER ID   IMAGE\n"))
	assert.Contains(t, FormatResult(containers, "CONTAINER ID   IMAGE\nabc   nginx\ndef   redis"), "There are 2 Docker containers")

	branch := Mapping{Type: ResponseInfo, Subject: "git branch"}
	assert.Equal(t, "Current git branch: main", FormatResult(branch, "main\n"))

	status := Mapping{Type: ResponseStatus, Subject: "git status"}
	assert.Equal(t, "Here's the current git status:\nclean", FormatResult(status, "clean"))

	assert.Equal(t, "Here's the result:\nhello", FormatResult(Mapping{Type: ResponseText}, "hello"))
	assert.Equal(t, "The command produced no output.", FormatResult(Mapping{Type: ResponseText}, ""))
}
