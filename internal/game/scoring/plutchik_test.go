package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlutchik(t *testing.T) {
	t.Parallel()

	tests := []struct {
		correct, guessed string
		score            int
		rel              Relationship
		axis, intensity  int
	}{
		{"joy_strong", "joy_strong", 100, RelationExact, 0, 0},
		{"joy", "joy_medium", 100, RelationExact, 0, 0},
		{"joy_strong", "joy_medium", 85, RelationSameAxis, 0, 1},
		{"joy_strong", "joy_weak", 70, RelationSameAxis, 0, 2},
		{"joy_medium", "trust_medium", 60, RelationAdjacent, 1, 0},
		{"joy_medium", "anticipation_weak", 45, RelationAdjacent, 1, 1},
		{"joy_strong", "trust_weak", 30, RelationAdjacent, 1, 2},
		{"joy_medium", "sadness_medium", 10, RelationOpposite, 4, 0},
		{"trust_strong", "disgust_medium", 5, RelationOpposite, 4, 1},
		{"fear_weak", "anger_strong", 0, RelationOpposite, 4, 2},
		{"joy_medium", "fear_medium", 25, RelationDistant, 2, 0},
		{"anger", "joy_weak", 15, RelationDistant, 2, 1},
		{"anticipation_strong", "fear_weak", 5, RelationDistant, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.correct+"/"+tt.guessed, func(t *testing.T) {
			t.Parallel()
			got, err := Plutchik(tt.correct, tt.guessed, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.rel, got.Relationship)
			assert.Equal(t, tt.axis, got.AxisDistance)
			assert.Equal(t, tt.intensity, got.IntensityDistance)
		})
	}
}

func TestPlutchikWrapsAroundTheWheel(t *testing.T) {
	got, err := Plutchik("joy_medium", "anticipation_medium", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AxisDistance)
	assert.Equal(t, 6, got.Score)
	assert.InDelta(t, 1.0, got.Distance, 1e-9)

	got, err = Plutchik("trust_strong", "trust_weak", 10)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Distance, 1e-9)
	assert.Equal(t, 7, got.Score)
}

func TestPlutchikRejectsUnknownEmotions(t *testing.T) {
	for _, pair := range [][2]string{
		{"neutral", "joy"},
		{"joy", "optimism"},
		{"joy_extreme", "joy"},
	} {
		_, err := Plutchik(pair[0], pair[1], 100)
		assert.Error(t, err, pair)
	}
}
