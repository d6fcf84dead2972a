package enrich

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// maxHashtags caps how many pool entries appear on a single pin.
const maxHashtags = 3

// Composer assembles the final pin copy: base text, a bounded random subset
// of the hashtag pool, and the affiliate disclaimer.
type Composer struct {
	hashtagPool []string
	disclaimer  string

	// rngMu guards rng: concurrent batch runs share one composer.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewComposer accepts an optional rand source for deterministic tests.
func NewComposer(hashtagPool []string, disclaimer string, rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{
		hashtagPool: hashtagPool,
		disclaimer:  disclaimer,
		rng:         rng,
	}
}

// Compose appends hashtags and the disclaimer to the base description.
func (c *Composer) Compose(base string) string {
	return base + "\n\n" + strings.Join(c.sampleHashtags(), " ") + "\n" + c.disclaimer
}

// sampleHashtags draws min(len(pool), maxHashtags) distinct tags without
// replacement, each prefixed with the marker character.
func (c *Composer) sampleHashtags() []string {
	n := len(c.hashtagPool)
	if n > maxHashtags {
		n = maxHashtags
	}
	if n == 0 {
		return nil
	}

	c.rngMu.Lock()
	order := c.rng.Perm(len(c.hashtagPool))
	c.rngMu.Unlock()

	tags := make([]string, 0, n)
	for _, idx := range order[:n] {
		tags = append(tags, "#"+strings.TrimSpace(c.hashtagPool[idx]))
	}
	return tags
}
