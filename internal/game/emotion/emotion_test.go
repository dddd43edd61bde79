package emotion

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularySizes(t *testing.T) {
	t.Parallel()

	assert.Len(t, Vocabulary(ModeBasic), 8)
	assert.Len(t, Vocabulary(ModeAdvanced), 24)
	assert.Len(t, Vocabulary(ModeWheel), 24)
	assert.Len(t, Vocabulary("unknown"), 8)
}

func TestName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "喜び", Name("joy"))
	assert.Equal(t, "楽観", Name("optimism"))
	assert.Equal(t, "陶酔", Name("joy_strong"))
	assert.Equal(t, "mystery", Name("mystery"))
}

func TestChoices_ContainsTargetOnce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for _, tc := range []struct {
		mode   Mode
		target string
		count  int
	}{
		{ModeBasic, "joy", 4},
		{ModeBasic, "trust", 8},
		{ModeAdvanced, "love", 4},
		{ModeAdvanced, "hope", 8},
	} {
		for range 20 {
			choices := Choices(tc.mode, tc.target, tc.count, rng)
			require.Len(t, choices, tc.count)

			seen := map[string]bool{}
			hits := 0
			for _, c := range choices {
				assert.False(t, seen[c.ID], "duplicate choice %s", c.ID)
				seen[c.ID] = true
				assert.True(t, Contains(tc.mode, c.ID))
				if c.ID == tc.target {
					hits++
				}
			}
			assert.Equal(t, 1, hits)
		}
	}
}

func TestChoices_WholeVocabulary(t *testing.T) {
	t.Parallel()

	choices := Choices(ModeWheel, "anger_weak", ChoiceCount("wheel"), nil)
	assert.Len(t, choices, 24)
	assert.True(t, Contains(ModeWheel, "anger_weak"))
}

func TestChoiceCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, ChoiceCount("4choice"))
	assert.Equal(t, 8, ChoiceCount("8choice"))
	assert.Equal(t, 0, ChoiceCount("wheel"))
}

func TestRandom_StaysInVocabulary(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 7))
	for range 50 {
		e := Random(ModeAdvanced, rng)
		assert.True(t, Contains(ModeAdvanced, e.ID))
	}
}
