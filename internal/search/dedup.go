package search

// deduplicator keeps only the strongest hit per file path. Ties go to the
// hit with the lower vector distance.
type deduplicator struct {
	best map[string]ScoredHit
}

func newDeduplicator() *deduplicator {
	return &deduplicator{best: make(map[string]ScoredHit)}
}

func (d *deduplicator) add(hit ScoredHit) {
	current, ok := d.best[hit.Path]
	if !ok || betterHit(hit, current) {
		d.best[hit.Path] = hit
	}
}

func (d *deduplicator) results() []ScoredHit {
	out := make([]ScoredHit, 0, len(d.best))
	for _, hit := range d.best {
		out = append(out, hit)
	}
	return out
}

// betterHit orders by hybrid score, then by distance for deterministic
// results when scores tie.
func betterHit(a, b ScoredHit) bool {
	if a.Hybrid != b.Hybrid {
		return a.Hybrid > b.Hybrid
	}
	return a.Distance < b.Distance
}
