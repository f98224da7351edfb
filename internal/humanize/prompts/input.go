package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// The text the stage operates on.
	Text string
	// Stylometric target profile.
	TargetAvgSentenceLen     float64
	TargetPunctuationDensity float64
	// Analyzer context injected into rewrite prompts.
	ClicheSummary string
	MetricsJSON   string
	// Critic parameterization: what this critic should focus on.
	CriticFocus string
	// Referee inputs: both critics' serialized feedback.
	CriticAJSON string
	CriticBJSON string
	// Advisory budget for the referee, seconds. 0 means unconstrained.
	TimeBudgetSeconds int
}
