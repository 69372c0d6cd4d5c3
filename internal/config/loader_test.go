package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "TERMAGENT_HEAVY_MODEL", "TERMAGENT_LIGHT_MODEL",
		"OLLAMA_HOST", "GEMINI_API_KEY", "TERMAGENT_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHeavyModel, cfg.OpenAI.HeavyModel)
	assert.Equal(t, DefaultLightModel, cfg.OpenAI.LightModel)
	assert.Equal(t, DefaultScoreThreshold, cfg.Router.ScoreThreshold)
	assert.Equal(t, DefaultShellTimeout, cfg.Shell.Timeout)
	assert.True(t, cfg.Shell.Confirm)
}

func TestLoadFileExpandsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_KEY", "sk-from-file")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
openai:
  api_key: ${MY_KEY}
  heavy_model: gpt-4o-2024
router:
  score_threshold: 12
shell:
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-2024", cfg.OpenAI.HeavyModel)
	assert.Equal(t, DefaultLightModel, cfg.OpenAI.LightModel)
	assert.Equal(t, 12, cfg.Router.ScoreThreshold)
	assert.Equal(t, 5*time.Second, cfg.Shell.Timeout)
}

func TestLoadOverridesOneWeight(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
router:
  long_input_words: 12
  weights:
    complex_keyword: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := DefaultWeights()
	want.ComplexKeyword = 5
	assert.Equal(t, want, cfg.Router.Weights)
	assert.Equal(t, 12, cfg.Router.LongInputWords)
	assert.Equal(t, DefaultScoreThreshold, cfg.Router.ScoreThreshold)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("TERMAGENT_LIGHT_MODEL", "gpt-4o-mini")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("TERMAGENT_DEBUG", "true")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai:\n  api_key: sk-file\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.LightModel)
	assert.True(t, cfg.Ollama.Enabled)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Host)
	assert.True(t, cfg.Debug)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router: [unclosed"), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrMissingAuth))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.OpenAI.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.Router.ScoreThreshold = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidRouter)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "termagent", "config.yaml")

	cfg := DefaultConfig()
	cfg.Router.WordThreshold = 30
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.Router.WordThreshold)
}

func TestVoiceModelPathDefaultsUnderDataDir(t *testing.T) {
	t.Setenv("TERMAGENT_HOME", "/tmp/ta-home")
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/tmp/ta-home", "models", "vosk-model-small-en-us"), cfg.VoiceModelPath())

	cfg.Voice.ModelPath = "/opt/models/en"
	assert.Equal(t, "/opt/models/en", cfg.VoiceModelPath())
}
