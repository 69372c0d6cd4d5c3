package config

import "time"

// Default configuration values.
const (
	// Models
	DefaultHeavyModel  = "gpt-4o"
	DefaultLightModel  = "gpt-3.5-turbo"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1024
	DefaultOllamaModel = "llama3.2"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultGeminiModel = "gemini-2.0-flash"

	// Router policy
	DefaultScoreThreshold     = 8
	DefaultReasoningThreshold = 3
	DefaultWordThreshold      = 15
	DefaultStepThreshold      = 2
	DefaultTwoStepScore       = 5
	DefaultThreeStepScore     = 10
	DefaultLongInputWords     = 8

	// Complexity signal weights
	DefaultComplexKeywordWeight = 2
	DefaultSimpleKeywordWeight  = -1
	DefaultComplexPatternWeight = 3
	DefaultSimplePatternWeight  = -2
	DefaultLeadingPhraseWeight  = 3

	// Retry and resilience
	DefaultMaxRetries      = 2
	DefaultRetryDelay      = 500 * time.Millisecond
	DefaultMaxRetryDelay   = 8 * time.Second
	DefaultHTTPTimeout     = 60 * time.Second
	DefaultCircuitFailures = 3
	DefaultCircuitReset    = 30 * time.Second

	// Rate limiting
	DefaultRequestsPerMinute = 60
	DefaultBurst             = 5

	// Shell
	DefaultShellTimeout   = 30 * time.Second
	DefaultMaxOutputChars = 30000

	// Workspace snapshot
	DefaultMaxDepth       = 3
	DefaultMaxFilesPerDir = 20

	// History
	DefaultMaxHistoryEntries = 1000
	DefaultMaxMessages       = 50

	// Executable cache
	DefaultExecutableCacheTTL = 24 * time.Hour
)

// DefaultForceKeywords always select the heavyweight model when present.
var DefaultForceKeywords = []string{"debug", "troubleshoot", "investigate", "analyze"}

// DefaultWeights returns the standard complexity signal weights.
func DefaultWeights() WeightsConfig {
	return WeightsConfig{
		ComplexKeyword: DefaultComplexKeywordWeight,
		SimpleKeyword:  DefaultSimpleKeywordWeight,
		ComplexPattern: DefaultComplexPatternWeight,
		SimplePattern:  DefaultSimplePatternWeight,
		LeadingPhrase:  DefaultLeadingPhraseWeight,
	}
}
