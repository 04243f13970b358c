package model

// MockScorer returns canned results for deterministic tests.
type MockScorer struct {
	Results map[string]Result // symbol -> result
}

func NewMockScorer() *MockScorer {
	return &MockScorer{Results: map[string]Result{}}
}

// SetUp configures a symbol to score as the up class with the given confidence.
func (m *MockScorer) SetUp(symbol string, confidence float64) {
	m.Results[symbol] = Result{Class: 1, Confidence: confidence, ProbDown: 1 - confidence, State: StateOK}
}

// SetDown configures a symbol to score as the down class.
func (m *MockScorer) SetDown(symbol string, probDown float64) {
	m.Results[symbol] = Result{Class: 0, Confidence: 1 - probDown, ProbDown: probDown, State: StateOK}
}

func (m *MockScorer) Score(symbol string, _ []float64) Result {
	if r, ok := m.Results[symbol]; ok {
		return r
	}
	return Neutral("no mock result configured")
}

func (m *MockScorer) Close() {}
