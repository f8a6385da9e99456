package alignment

import (
	"github.com/agnivade/levenshtein"

	"lectern/internal/textutil"
	"lectern/internal/transcripts"
)

// minKeyWords is how many leading normalized words form an index key.
// Shorter sentences key on every word they have.
const minKeyWords = 3

// minNormalizedLen is the shortest normalized document sentence worth
// matching; anything under it is noise and stays unmatched.
const minNormalizedLen = 3

// candidate is an indexed transcript sentence. Each candidate may be claimed
// by at most one document sentence.
type candidate struct {
	sentence   transcripts.Sentence
	normalized string
	consumed   bool
}

// transcriptIndex buckets transcript sentences by their leading-words key.
type transcriptIndex struct {
	buckets map[string][]*candidate
}

func buildIndex(sentences []transcripts.Sentence) *transcriptIndex {
	idx := &transcriptIndex{buckets: make(map[string][]*candidate)}
	for _, s := range sentences {
		normalized := textutil.Normalize(s.Text)
		key := textutil.LeadingWordsKey(s.Text, minKeyWords)
		if key == "" {
			continue
		}
		idx.buckets[key] = append(idx.buckets[key], &candidate{
			sentence:   s,
			normalized: normalized,
		})
	}
	return idx
}

// claim finds the best unconsumed candidate for the normalized document
// sentence and marks it consumed. Returns nil when the key has no bucket or
// no candidate reaches the similarity threshold.
func (idx *transcriptIndex) claim(key, normalized string, threshold float64) (*transcripts.Sentence, float64) {
	var (
		best    *candidate
		bestSim float64
	)
	for _, c := range idx.buckets[key] {
		if c.consumed {
			continue
		}
		sim := similarity(normalized, c.normalized)
		if sim >= threshold && sim > bestSim {
			best = c
			bestSim = sim
		}
	}
	if best == nil {
		return nil, 0
	}
	best.consumed = true
	return &best.sentence, bestSim
}

// similarity is 1 minus the normalized Levenshtein distance, in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
