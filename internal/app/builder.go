package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/atotto/clipboard"

	"termagent/internal/agent"
	"termagent/internal/client"
	"termagent/internal/config"
	"termagent/internal/history"
	"termagent/internal/logging"
	"termagent/internal/router"
	"termagent/internal/security"
	"termagent/internal/tools"
	"termagent/internal/ui"
	"termagent/internal/voice"
	"termagent/internal/watcher"
	"termagent/internal/workspace"
)

// maxPlanSteps bounds task decomposition.
const maxPlanSteps = 8

// Builder constructs an App step by step. Optional components that fail to
// start are logged and left out; only storage and model setup errors stop
// the build.
type Builder struct {
	cfg     *config.Config
	workDir string
	dataDir string

	in          io.Reader
	out         io.Writer
	interactive bool

	models      *client.Tiered
	modelsSet   bool
	transcriber voice.Transcriber
	copyFn      func(string) error
	watchPath   bool

	// Built components
	history     *history.Store
	messages    *history.MessageCache
	executables *tools.ExecutableCache
	pathWatcher *watcher.PathWatcher
	shell       *tools.Shell
	recognizer  *tools.Recognizer
	router      *router.Router
	agents      *agent.Agents
	listener    *voice.Listener
	renderer    *ui.Renderer
	reader      ui.LineReader
	redactor    *security.SecretRedactor
	noModelNote string

	buildErrors []error
	mu          sync.Mutex
}

// NewBuilder creates a Builder for cfg rooted at workDir. Input and output
// default to the process stdin and stdout.
func NewBuilder(cfg *config.Config, workDir string) *Builder {
	return &Builder{
		cfg:       cfg,
		workDir:   workDir,
		in:        os.Stdin,
		out:       os.Stdout,
		copyFn:    clipboard.WriteAll,
		watchPath: true,
	}
}

// WithIO sets the input and output streams. interactive selects the
// bubbletea prompt instead of plain line reading.
func (b *Builder) WithIO(in io.Reader, out io.Writer, interactive bool) *Builder {
	b.in, b.out, b.interactive = in, out, interactive
	return b
}

// WithDataDir overrides ~/.termagent.
func (b *Builder) WithDataDir(dir string) *Builder {
	b.dataDir = dir
	return b
}

// WithModels sets the model chains instead of building them from config.
// A nil value runs without any model backend.
func (b *Builder) WithModels(m *client.Tiered) *Builder {
	b.models, b.modelsSet = m, true
	return b
}

// WithTranscriber sets the speech-to-text source for voice input.
func (b *Builder) WithTranscriber(t voice.Transcriber) *Builder {
	b.transcriber = t
	return b
}

// WithClipboard replaces the system clipboard writer.
func (b *Builder) WithClipboard(fn func(string) error) *Builder {
	b.copyFn = fn
	return b
}

// WithPathWatch enables or disables watching $PATH for new executables.
func (b *Builder) WithPathWatch(on bool) *Builder {
	b.watchPath = on
	return b
}

// Build constructs the App.
func (b *Builder) Build(ctx context.Context) (*App, error) {
	if err := b.initStorage(); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	b.initExecutables()
	if err := b.initModels(ctx); err != nil {
		b.addError(err)
		return nil, b.finalizeError()
	}
	b.initAgents()
	b.initVoice()
	b.initUI()

	return b.assembleApp(), nil
}

// initStorage opens the command history and message cache.
func (b *Builder) initStorage() error {
	if b.dataDir == "" {
		dir, err := config.DataDir()
		if err != nil {
			return fmt.Errorf("data directory: %w", err)
		}
		b.dataDir = dir
	}
	if err := os.MkdirAll(b.dataDir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	sessionID := history.NewSessionID()
	store, err := history.Open(history.DefaultPath(b.dataDir), b.cfg.History.MaxEntries, sessionID)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	logging.SetSession(sessionID)
	b.history = store
	b.messages = history.OpenMessages(history.MessagesPath(b.dataDir), b.cfg.History.MaxMessages)
	b.redactor = security.NewSecretRedactor()
	return nil
}

// initExecutables loads the PATH scan and watches $PATH so newly installed
// binaries are recognized without a restart.
func (b *Builder) initExecutables() {
	b.executables = tools.NewExecutableCache(filepath.Join(b.dataDir, "executables.json"), config.DefaultExecutableCacheTTL)
	if err := b.executables.Load(); err != nil {
		logging.Warn("executable scan failed", "error", err)
	}
	b.recognizer = tools.NewRecognizer(b.executables)

	if !b.watchPath {
		return
	}
	cache := b.executables
	w, err := watcher.NewPathWatcher(cache.Dirs(), watcher.DefaultConfig(), func(changes map[string]watcher.Operation) {
		for path, op := range changes {
			logging.Debug("PATH entry changed", "name", filepath.Base(path), "op", op)
		}
		cache.Invalidate()
	})
	if err != nil {
		logging.Warn("PATH watcher disabled", "error", err)
		return
	}
	w.Start()
	b.pathWatcher = w
}

// initModels builds the heavy and light chains. Running without any
// backend is allowed: commands and mapped queries still work, and
// model-backed paths report missing credentials.
func (b *Builder) initModels(ctx context.Context) error {
	if b.modelsSet {
		if b.models == nil {
			b.noModelNote = config.ErrMissingAuth.Error()
		}
		return nil
	}
	models, err := client.NewTiered(ctx, b.cfg)
	switch {
	case errors.Is(err, client.ErrNoBackend):
		b.noModelNote = config.ErrMissingAuth.Error()
		return nil
	case err != nil:
		return fmt.Errorf("model setup: %w", err)
	}
	b.models = models
	return nil
}

func (b *Builder) initAgents() {
	b.shell = tools.NewShell(
		tools.NewSession(b.workDir),
		security.NewCommandValidator(b.cfg.Shell.BlockedCommands...),
		b.cfg.Shell,
	)
	b.router = router.New(b.cfg, b.recognizer)

	deps := &agent.Deps{
		Models:     b.models,
		Shell:      b.shell,
		Workspace:  workspace.NewGatherer(b.cfg.Workspace),
		Recognizer: b.recognizer,
		Redactor:   b.redactor,
	}
	var light client.Client
	if b.models != nil {
		light = b.models.Light
	}
	deps.Decomposer = router.NewDecomposer(light, maxPlanSteps)
	b.agents = agent.New(deps)
}

func (b *Builder) initVoice() {
	t := b.transcriber
	if t == nil && b.cfg.Voice.Command != "" {
		t = &voice.ExecTranscriber{Command: b.cfg.Voice.Command, ModelPath: b.cfg.VoiceModelPath()}
	}
	b.listener = voice.NewListener(b.cfg.VoiceModelPath(), t)
}

func (b *Builder) initUI() {
	styles := ui.DefaultStyles()
	b.renderer = ui.NewRenderer(b.cfg.UI, styles)

	var reader interface {
		ui.LineReader
		SetVoice(<-chan string)
	}
	if b.interactive && b.cfg.UI.FancyInput {
		store := b.history
		reader = ui.NewTeaReader(styles, store.Inputs, builtinNames())
	} else {
		reader = ui.NewPlainReader(b.in, b.out)
	}
	reader.SetVoice(b.listener.Transcripts())
	b.reader = reader
}

func (b *Builder) assembleApp() *App {
	return &App{
		cfg:         b.cfg,
		out:         b.out,
		router:      b.router,
		agents:      b.agents,
		hasModels:   b.models != nil,
		noModelNote: b.noModelNote,
		shell:       b.shell,
		history:     b.history,
		messages:    b.messages,
		executables: b.executables,
		pathWatcher: b.pathWatcher,
		listener:    b.listener,
		redactor:    b.redactor,
		renderer:    b.renderer,
		reader:      b.reader,
		copyFn:      b.copyFn,
	}
}

func (b *Builder) addError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buildErrors = append(b.buildErrors, err)
}

// finalizeError combines all build errors into a single error.
func (b *Builder) finalizeError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buildErrors) == 0 {
		return nil
	}
	if len(b.buildErrors) == 1 {
		return b.buildErrors[0]
	}
	msg := fmt.Sprintf("app build failed with %d error(s)", len(b.buildErrors))
	for i, err := range b.buildErrors {
		msg += fmt.Sprintf("\n  %d. %s", i+1, err.Error())
	}
	return errors.New(msg)
}
