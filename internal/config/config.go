package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the main application configuration.
type Config struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Router    RouterConfig    `yaml:"router"`
	Retry     RetryConfig     `yaml:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Shell     ShellConfig     `yaml:"shell"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	History   HistoryConfig   `yaml:"history"`
	Voice     VoiceConfig     `yaml:"voice"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Runtime-only switches set from CLI flags.
	Debug     bool   `yaml:"-"`
	NoConfirm bool   `yaml:"-"`
	Version   string `yaml:"-"`
}

// OpenAIConfig holds the hosted model settings.
type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	HeavyModel  string        `yaml:"heavy_model"`
	LightModel  string        `yaml:"light_model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int64         `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OllamaConfig configures the optional local lightweight backend.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Model   string `yaml:"model"`
}

// GeminiConfig configures the optional secondary hosted backend.
type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model"`
}

// RouterConfig is the complexity policy used to pick between the two models.
type RouterConfig struct {
	ScoreThreshold     int           `yaml:"score_threshold"`
	ReasoningThreshold int           `yaml:"reasoning_threshold"`
	WordThreshold      int           `yaml:"word_threshold"`
	StepThreshold      int           `yaml:"step_threshold"`
	TwoStepScore       int           `yaml:"two_step_score"`
	ThreeStepScore     int           `yaml:"three_step_score"`
	ForceKeywords      []string      `yaml:"force_keywords"`
	LongInputWords     int           `yaml:"long_input_words"`
	Weights            WeightsConfig `yaml:"weights"`
}

// WeightsConfig sets how much each complexity signal moves the score.
// Simple signals are usually negative.
type WeightsConfig struct {
	ComplexKeyword int `yaml:"complex_keyword"`
	SimpleKeyword  int `yaml:"simple_keyword"`
	ComplexPattern int `yaml:"complex_pattern"`
	SimplePattern  int `yaml:"simple_pattern"`
	LeadingPhrase  int `yaml:"leading_phrase"`
}

// RetryConfig holds retry settings for model calls.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// CircuitConfig holds circuit breaker settings.
type CircuitConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// RateLimitConfig holds model call rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// ShellConfig holds shell execution settings.
type ShellConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	Confirm         bool          `yaml:"confirm"`
	MaxOutputChars  int           `yaml:"max_output_chars"`
	BlockedCommands []string      `yaml:"blocked_commands,omitempty"`
}

// WorkspaceConfig bounds the workspace snapshot.
type WorkspaceConfig struct {
	MaxDepth       int  `yaml:"max_depth"`
	MaxFilesPerDir int  `yaml:"max_files_per_dir"`
	ShowHidden     bool `yaml:"show_hidden"`
	RespectIgnore  bool `yaml:"respect_gitignore"`
}

// HistoryConfig holds command history settings.
type HistoryConfig struct {
	MaxEntries  int `yaml:"max_entries"`
	MaxMessages int `yaml:"max_messages"`
}

// VoiceConfig holds voice input settings.
type VoiceConfig struct {
	ModelPath string `yaml:"model_path"`
	// Command is a speech-to-text program that prints one utterance per
	// line. $TERMAGENT_VOICE_MODEL is set to the model path.
	Command string `yaml:"command"`
}

// UIConfig holds terminal rendering settings.
type UIConfig struct {
	Markdown       bool   `yaml:"markdown"`
	HighlightStyle string `yaml:"highlight_style"`
	FancyInput     bool   `yaml:"fancy_input"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			HeavyModel:  DefaultHeavyModel,
			LightModel:  DefaultLightModel,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			Timeout:     DefaultHTTPTimeout,
		},
		Ollama: OllamaConfig{
			Host:  DefaultOllamaHost,
			Model: DefaultOllamaModel,
		},
		Gemini: GeminiConfig{
			Model: DefaultGeminiModel,
		},
		Router: RouterConfig{
			ScoreThreshold:     DefaultScoreThreshold,
			ReasoningThreshold: DefaultReasoningThreshold,
			WordThreshold:      DefaultWordThreshold,
			StepThreshold:      DefaultStepThreshold,
			TwoStepScore:       DefaultTwoStepScore,
			ThreeStepScore:     DefaultThreeStepScore,
			ForceKeywords:      append([]string(nil), DefaultForceKeywords...),
			LongInputWords:     DefaultLongInputWords,
			Weights:            DefaultWeights(),
		},
		Retry: RetryConfig{
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
			MaxDelay:   DefaultMaxRetryDelay,
		},
		Circuit: CircuitConfig{
			FailureThreshold: DefaultCircuitFailures,
			ResetTimeout:     DefaultCircuitReset,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: DefaultRequestsPerMinute,
			Burst:             DefaultBurst,
		},
		Shell: ShellConfig{
			Timeout:        DefaultShellTimeout,
			Confirm:        true,
			MaxOutputChars: DefaultMaxOutputChars,
		},
		Workspace: WorkspaceConfig{
			MaxDepth:       DefaultMaxDepth,
			MaxFilesPerDir: DefaultMaxFilesPerDir,
			RespectIgnore:  true,
		},
		History: HistoryConfig{
			MaxEntries:  DefaultMaxHistoryEntries,
			MaxMessages: DefaultMaxMessages,
		},
		UI: UIConfig{
			Markdown:       true,
			HighlightStyle: "monokai",
			FancyInput:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  true,
		},
	}
}

// DataDir returns ~/.termagent, where history, caches and voice models live.
func DataDir() (string, error) {
	if dir := os.Getenv("TERMAGENT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termagent"), nil
}

// VoiceModelPath returns the configured speech model directory, defaulting
// to the small English model under the data dir.
func (c *Config) VoiceModelPath() string {
	if c.Voice.ModelPath != "" {
		return c.Voice.ModelPath
	}
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "models", "vosk-model-small-en-us")
}
