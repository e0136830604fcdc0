package zodiac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigns_TwelveEntries(t *testing.T) {
	all := Signs()
	require.Len(t, all, 12)
	assert.Equal(t, "aries", all[0].Key)
	assert.Equal(t, "pisces", all[11].Key)

	seen := make(map[string]bool)
	for _, s := range all {
		assert.NotEmpty(t, s.Label)
		assert.NotEmpty(t, s.Emoji)
		assert.False(t, seen[s.Key], "duplicate key %s", s.Key)
		seen[s.Key] = true
	}
}

func TestLookup_Known(t *testing.T) {
	s, ok := Lookup("scorpio")
	require.True(t, ok)
	assert.Equal(t, "Скорпион", s.Label)
	assert.Equal(t, "♏", s.Emoji)
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("ophiuchus")
	assert.False(t, ok)

	_, ok = Lookup("")
	assert.False(t, ok)
}
