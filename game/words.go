package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

var builtinWords = []string{
	"lighthouse", "dragon", "volcano", "robot", "castle", "submarine",
	"jungle", "astronaut", "waterfall", "octopus", "desert", "train",
	"wizard", "glacier", "bakery", "spaceship", "treehouse", "pirate",
	"carnival", "iceberg", "samurai", "greenhouse", "tornado", "library",
	"phoenix", "skyscraper", "lantern", "coral reef", "windmill", "owl",
}

// WordBank holds subject words in memory. Rooms pick from it inside their
// exclusive section, so it never touches the network.
type WordBank struct {
	locker sync.RWMutex
	words  []string
}

// NewWordBank returns a bank over words, or over the built-in list when
// words is empty.
func NewWordBank(words []string) *WordBank {
	wb := &WordBank{}
	wb.Replace(words)
	return wb
}

// Replace swaps the bank's content. Blank and duplicate words are dropped.
func (wb *WordBank) Replace(words []string) {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		clean = append(clean, w)
	}
	if len(clean) == 0 {
		clean = append(clean, builtinWords...)
	}

	wb.locker.Lock()
	wb.words = clean
	wb.locker.Unlock()
}

func (wb *WordBank) Len() int {
	wb.locker.RLock()
	defer wb.locker.RUnlock()
	return len(wb.words)
}

// Pick returns up to count distinct random words.
func (wb *WordBank) Pick(count int) []string {
	wb.locker.RLock()
	defer wb.locker.RUnlock()

	if count > len(wb.words) {
		count = len(wb.words)
	}
	picked := make([]string, 0, count)
	for _, i := range rand.Perm(len(wb.words))[:count] {
		picked = append(picked, wb.words[i])
	}
	return picked
}
