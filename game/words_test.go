package game

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordBank(t *testing.T) {
	t.Parallel()

	t.Run("cleans input", func(t *testing.T) {
		bank := NewWordBank([]string{" Lighthouse ", "lighthouse", "", "DRAGON", "   "})
		assert.Equal(t, 2, bank.Len())
		assert.ElementsMatch(t, []string{"lighthouse", "dragon"}, bank.Pick(5))
	})

	t.Run("falls back to built-in words", func(t *testing.T) {
		bank := NewWordBank(nil)
		assert.Equal(t, len(builtinWords), bank.Len())
		bank.Replace([]string{"", " "})
		assert.Equal(t, len(builtinWords), bank.Len())
	})

	t.Run("picks distinct words", func(t *testing.T) {
		bank := NewWordBank(nil)
		for range 20 {
			picked := bank.Pick(5)
			assert.Len(t, picked, 5)
			seen := map[string]bool{}
			for _, w := range picked {
				assert.False(t, seen[w], "duplicate %q", w)
				seen[w] = true
				assert.Contains(t, builtinWords, w)
			}
		}
	})

	t.Run("replace swaps content", func(t *testing.T) {
		bank := NewWordBank(nil)
		bank.Replace([]string{"volcano"})
		assert.Equal(t, []string{"volcano"}, bank.Pick(3))
		assert.Empty(t, bank.Pick(0))
	})
}

func TestCodeGen(t *testing.T) {
	t.Parallel()
	gen := NewCodeGen()
	pattern := regexp.MustCompile(`^[A-Z0-9]{4}$`)
	seen := map[string]struct{}{}
	for range 200 {
		code := gen.Generate()
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	// 36^4 codes; 200 draws colliding down to a handful would mean a broken source
	assert.Greater(t, len(seen), 150)
}
