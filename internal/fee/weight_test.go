package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   float64
	}{
		{"minimum", Scores{1, 1, 1, 1, 1}, 7},
		{"maximum", Scores{5, 5, 5, 5, 5}, 35},
		{"mixed", Scores{3, 2, 4, 1, 5}, 21},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.scores.Weight())
		})
	}
}

func TestScoreMatchesFormulaOverDomain(t *testing.T) {
	for k := MinScore; k <= MaxScore; k++ {
		for w := MinScore; w <= MaxScore; w++ {
			for r := MinScore; r <= MaxScore; r++ {
				for d := MinScore; d <= MaxScore; d++ {
					for s := MinScore; s <= MaxScore; s++ {
						want := 2*float64(k) + 1.5*float64(w) + 1.5*float64(r) + float64(d) + float64(s)
						got := Scores{k, w, r, d, s}.Weight()
						if got != want {
							t.Fatalf("weight(%d,%d,%d,%d,%d)=%v want %v", k, w, r, d, s, got, want)
						}
					}
				}
			}
		}
	}
}

func TestScoreMonotonicPerDimension(t *testing.T) {
	bump := []func(*Scores){
		func(s *Scores) { s.Complexity++ },
		func(s *Scores) { s.Time++ },
		func(s *Scores) { s.Risk++ },
		func(s *Scores) { s.Dependency++ },
		func(s *Scores) { s.Skill++ },
	}
	base := Scores{2, 3, 1, 4, 2}
	for i, f := range bump {
		next := base
		f(&next)
		assert.GreaterOrEqual(t, next.Weight(), base.Weight(), "dimension %d", i)
	}
}

func TestInvalid(t *testing.T) {
	assert.Equal(t, "", Scores{1, 2, 3, 4, 5}.Invalid())
	assert.Equal(t, "time", Scores{1, 6, 3, 4, 5}.Invalid())
	assert.Equal(t, "skill", Scores{1, 1, 1, 1, 0}.Invalid())
}
