package model

// ScoreEntry configures one weighted constituent of a composite score.
type ScoreEntry struct {
	Function string  `yaml:"function"`
	Args     []any   `yaml:"args"`
	Weight   float64 `yaml:"weight"`
}

// FactorScore is one constituent's contribution to a composite evaluation.
type FactorScore struct {
	Name     string  `json:"name"`
	RawScore float64 `json:"raw_score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Signal is the outcome of one composite evaluation.
type Signal struct {
	Timestamp    int64 // timestamp of the evaluated bar
	Price        float64
	Factors      []FactorScore
	Score        float64 // rounded and clamped to [-1, 1]
	IncludesLive bool    // evaluated with the still-forming period
}

// Hold reports whether the signal carries no directional interest.
func (s *Signal) Hold() bool { return s.Score == 0 }
