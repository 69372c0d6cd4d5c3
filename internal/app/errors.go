package app

import (
	"context"
	"errors"

	"termagent/internal/config"
	"termagent/internal/voice"
)

// MissingKeyHelp follows the missing credentials error on the terminal.
const MissingKeyHelp = "Export OPENAI_API_KEY (or enable ollama/gemini in the config file). Commands and common questions still work without a key."

// printError reports a failed turn. None of these end the session.
func (a *App) printError(err error) {
	switch {
	case errors.Is(err, config.ErrMissingAuth):
		a.println(a.renderer.Error(err))
		a.println(a.renderer.Info(MissingKeyHelp))
	case errors.Is(err, context.Canceled):
		a.println(a.renderer.Notice("cancelled"))
	case errors.Is(err, voice.ErrModelMissing):
		a.println(a.renderer.Error(err))
		a.println(a.renderer.Info("Download a speech model into ~/.termagent/models/ or set voice.model_path."))
	case errors.Is(err, voice.ErrNotConfigured):
		a.println(a.renderer.Error(err))
		a.println(a.renderer.Info("Set voice.command to a speech-to-text program that prints one utterance per line."))
	default:
		a.println(a.renderer.Error(err))
	}
}
