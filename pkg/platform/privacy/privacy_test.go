package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	assert.Equal(t, "203.0.113.0", AnonymizeIP("203.0.113.77"))
	assert.Equal(t, "2001:db8:1::", AnonymizeIP("2001:db8:1:2::7"))
	assert.Equal(t, "invalid", AnonymizeIP("nope"))
}

func TestPseudonymizer(t *testing.T) {
	t.Run("rejects empty and oversized secrets", func(t *testing.T) {
		_, err := NewPseudonymizer("")
		require.Error(t, err)
		_, err = NewPseudonymizer(strings.Repeat("k", 65))
		require.Error(t, err)
	})

	t.Run("stable per secret and distinct per address", func(t *testing.T) {
		p, err := NewPseudonymizer("secret-a")
		require.NoError(t, err)

		k1 := p.Key("203.0.113.7")
		assert.Equal(t, k1, p.Key("203.0.113.7"))
		assert.NotEqual(t, k1, p.Key("203.0.113.8"))
		assert.Len(t, k1, 32)
	})

	t.Run("different secrets give different keys", func(t *testing.T) {
		a, _ := NewPseudonymizer("secret-a")
		b, _ := NewPseudonymizer("secret-b")
		assert.NotEqual(t, a.Key("203.0.113.7"), b.Key("203.0.113.7"))
	})
}
