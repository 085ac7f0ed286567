package fee

// Score dimension bounds.
const (
	MinScore = 1
	MaxScore = 5
)

// Scores holds the five scoring dimensions of a task.
type Scores struct {
	Complexity int `json:"complexity"`
	Time       int `json:"time"`
	Risk       int `json:"risk"`
	Dependency int `json:"dependency"`
	Skill      int `json:"skill"`
}

// DefaultScores is the minimum score on every dimension.
func DefaultScores() Scores {
	return Scores{Complexity: MinScore, Time: MinScore, Risk: MinScore, Dependency: MinScore, Skill: MinScore}
}

// Score computes the work weight: k*2 + w*1.5 + r*1.5 + d*1 + s*1.
func Score(k, w, r, d, s float64) float64 {
	return k*2 + w*1.5 + r*1.5 + d + s
}

// Weight returns the work weight of s.
func (s Scores) Weight() float64 {
	return Score(float64(s.Complexity), float64(s.Time), float64(s.Risk), float64(s.Dependency), float64(s.Skill))
}

// Invalid returns the name of the first dimension outside [MinScore, MaxScore], or "".
func (s Scores) Invalid() string {
	for _, dim := range []struct {
		name string
		v    int
	}{
		{"complexity", s.Complexity},
		{"time", s.Time},
		{"risk", s.Risk},
		{"dependency", s.Dependency},
		{"skill", s.Skill},
	} {
		if dim.v < MinScore || dim.v > MaxScore {
			return dim.name
		}
	}
	return ""
}
