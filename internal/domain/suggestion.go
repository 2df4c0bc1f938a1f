package domain

// SafetyLevel classifies the destructive potential of a command.
type SafetyLevel string

const (
	SafetySafe      SafetyLevel = "safe"
	SafetyWarning   SafetyLevel = "warning"
	SafetyDangerous SafetyLevel = "dangerous"
)

// SafetyResult aggregates the safety classification of a single command.
type SafetyResult struct {
	Level   SafetyLevel `json:"level"`
	Warning string      `json:"warning,omitempty"`
	Reasons []string    `json:"reasons"`
}

// Suggestion is one ranked command candidate. All scores live in [0, 1].
type Suggestion struct {
	Command       string       `json:"command"`
	SemanticScore float64      `json:"semantic_score"`
	ContextScore  float64      `json:"context_score"`
	FinalScore    float64      `json:"final_score"`
	Rank          int          `json:"rank"`
	Safety        SafetyResult `json:"safety"`
}

// Candidate is a raw retrieval hit before context-aware ranking.
type Candidate struct {
	Command       string
	SemanticScore float64
	SemanticRank  int
}

// FixSuggestion is one candidate fix for an observed error message.
type FixSuggestion struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Fixes       []string `json:"fixes"`
	Confidence  float64  `json:"confidence"`
}
