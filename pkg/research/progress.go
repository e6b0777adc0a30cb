package research

// progressTracker owns the Progress record shared by every level of one
// research traversal. Updates are applied as partial mutations and the
// observer, when set, receives a value snapshot synchronously after each
// one. Observer panics are deliberately not recovered.
type progressTracker struct {
	progress   Progress
	onProgress func(Progress)
}

func newProgressTracker(breadth, depth int, onProgress func(Progress)) *progressTracker {
	return &progressTracker{
		progress: Progress{
			CurrentDepth:   depth,
			TotalDepth:     depth,
			CurrentBreadth: breadth,
			TotalBreadth:   breadth,
		},
		onProgress: onProgress,
	}
}

func (t *progressTracker) update(mutate func(*Progress)) {
	mutate(&t.progress)
	if t.onProgress != nil {
		t.onProgress(t.progress)
	}
}

// planned records a level entering its query loop: the level's bounds, the
// newly planned queries and the first query under way.
func (t *progressTracker) planned(depth, breadth int, queries []SerpQuery) {
	t.update(func(p *Progress) {
		p.CurrentDepth = depth
		p.CurrentBreadth = breadth
		p.TotalQueries += len(queries)
		p.CurrentQuery = ""
		if len(queries) > 0 {
			p.CurrentQuery = queries[0].Query
		}
	})
}

// completed counts one processed query, whether it succeeded or was skipped
// after a search failure.
func (t *progressTracker) completed() {
	t.update(func(p *Progress) {
		p.CompletedQueries++
	})
}
