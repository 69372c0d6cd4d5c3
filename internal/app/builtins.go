package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"termagent/internal/history"
	"termagent/internal/logging"
	"termagent/internal/ui"
)

type builtin struct {
	name  string
	usage string
	help  string
	run   func(a *App, ctx context.Context, args []string) (quit bool)
}

var builtins []builtin

func init() {
	builtins = []builtin{
		{"help", "help", "show this list", (*App).builtinHelp},
		{"history", "history [n]", "show the last n inputs (default 20)", (*App).builtinHistory},
		{"search", "search <text>", "search the command history", (*App).builtinSearch},
		{"stats", "stats", "show history statistics", (*App).builtinStats},
		{"clear", "clear", "clear the history and conversation cache", (*App).builtinClear},
		{"voice", "voice", "toggle voice input", (*App).builtinVoice},
		{"copy", "copy [alt]", "copy the last command, or its first suggested alternative", (*App).builtinCopy},
		{"rehash", "rehash", "rescan $PATH for executables", (*App).builtinRehash},
		{"quit", "quit | exit | q", "leave termagent", func(*App, context.Context, []string) bool { return true }},
	}
}

var quitAliases = map[string]bool{"quit": true, "exit": true, "q": true}

func builtinNames() []string {
	names := make([]string, 0, len(builtins)+2)
	for _, b := range builtins {
		names = append(names, b.name)
	}
	return append(names, "exit")
}

// runBuiltin handles REPL commands that never reach the agents.
func (a *App) runBuiltin(ctx context.Context, text string) (handled, quit bool) {
	fields := strings.Fields(text)
	name, args := strings.ToLower(fields[0]), fields[1:]
	if quitAliases[name] && len(args) == 0 {
		return true, true
	}
	for _, b := range builtins {
		if b.name != name {
			continue
		}
		// "history | grep x" and similar are shell commands.
		if len(args) > 0 && strings.ContainsAny(text, "|><;&") {
			return false, false
		}
		return true, b.run(a, ctx, args)
	}
	return false, false
}

func (a *App) builtinHelp(context.Context, []string) bool {
	var sb strings.Builder
	sb.WriteString("Builtins:\n")
	for _, b := range builtins {
		fmt.Fprintf(&sb, "  %-18s %s\n", b.usage, b.help)
	}
	sb.WriteString("\nAnything else is routed: questions go to the query agents, compound\ninstructions become tasks, git requests go to the git agent, and the rest\nruns as a shell command.")
	if !a.hasModels {
		sb.WriteString("\n\n" + a.renderer.Notice("no model backend configured"))
	}
	a.println(sb.String())
	return false
}

func (a *App) builtinHistory(_ context.Context, args []string) bool {
	n := 20
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			a.println(a.renderer.Info("usage: history [n]"))
			return false
		}
		n = v
	}
	a.println(FormatEntries(a.history.Recent(n)))
	return false
}

func (a *App) builtinSearch(_ context.Context, args []string) bool {
	if len(args) == 0 {
		a.println(a.renderer.Info("usage: search <text>"))
		return false
	}
	a.println(FormatEntries(a.history.Search(strings.Join(args, " "))))
	return false
}

func (a *App) builtinStats(context.Context, []string) bool {
	a.println(FormatStats(a.history.Stats()))
	return false
}

func (a *App) builtinClear(context.Context, []string) bool {
	if err := a.history.Clear(); err != nil {
		a.printError(err)
		return false
	}
	if err := a.messages.Clear(); err != nil {
		a.printError(err)
		return false
	}
	a.println(a.renderer.Info("History cleared."))
	return false
}

func (a *App) builtinVoice(ctx context.Context, _ []string) bool {
	active, err := a.listener.Toggle(ctx)
	if err != nil {
		a.printError(err)
		return false
	}
	if active {
		a.println(a.renderer.Info(ui.MessageIcons["active"] + " voice input on; speak a command"))
	} else {
		a.println(a.renderer.Info(ui.MessageIcons["pending"] + " voice input off"))
	}
	return false
}

func (a *App) builtinCopy(_ context.Context, args []string) bool {
	if a.last == nil || a.last.Command == "" {
		a.println(a.renderer.Info("Nothing to copy yet."))
		return false
	}
	text := a.last.Command
	if len(args) > 0 && args[0] == "alt" {
		if len(a.last.Suggestions) == 0 {
			a.println(a.renderer.Info("The last command has no suggested alternative."))
			return false
		}
		text = a.last.Suggestions[0]
	}
	if err := a.copyFn(text); err != nil {
		logging.Debug("clipboard write failed", "error", err)
		a.printError(fmt.Errorf("clipboard unavailable: %w", err))
		return false
	}
	a.println(a.renderer.Info("Copied: " + text))
	return false
}

func (a *App) builtinRehash(context.Context, []string) bool {
	if err := a.executables.Refresh(); err != nil {
		a.printError(err)
		return false
	}
	a.println(a.renderer.Info(fmt.Sprintf("%d executables on $PATH.", a.executables.Len())))
	return false
}

// FormatEntries renders history entries one per line, oldest first.
func FormatEntries(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No history."
	}
	var sb strings.Builder
	for i, e := range entries {
		mark := ui.MessageIcons["success"]
		if !e.Success {
			mark = ui.MessageIcons["error"]
		}
		fmt.Fprintf(&sb, "%4d  %s %s  %s", i+1, mark, e.Time.Format("2006-01-02 15:04"), e.Input)
		if e.Command != "" && e.Command != e.Input {
			fmt.Fprintf(&sb, "  → %s", e.Command)
		}
		if i < len(entries)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatStats renders history statistics.
func FormatStats(st history.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total commands:  %d\n", st.Total)
	fmt.Fprintf(&sb, "Unique commands: %d\n", st.Unique)
	fmt.Fprintf(&sb, "Success rate:    %.1f%%\n", st.SuccessRate*100)
	fmt.Fprintf(&sb, "Sessions:        %d", st.Sessions)
	if len(st.TopCommands) > 0 {
		sb.WriteString("\nMost used:")
		for _, c := range st.TopCommands {
			fmt.Fprintf(&sb, "\n  %3d  %s", c.Count, c.Input)
		}
	}
	return sb.String()
}
