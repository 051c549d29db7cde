package packlate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// translatePackParallel dispatches every entry independently, at most
// t.concurrency at a time, and reassembles results by index. Entries share
// nothing but the Gate.
func (t *Translator) translatePackParallel(ctx context.Context, pack *Pack) (*Pack, Stats) {
	total := pack.Len()
	results := make([]LocalizedString, total)
	outcomes := make([]Outcome, total)

	var (
		mu   sync.Mutex
		done int
	)

	var g errgroup.Group
	g.SetLimit(t.concurrency)

	for i := 0; i < total; i++ {
		g.Go(func() error {
			results[i], outcomes[i] = t.TranslateEntry(ctx, pack.LocalizedStrings[i])

			mu.Lock()
			done++
			t.reportProgress(done, total)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	var stats Stats
	for _, o := range outcomes {
		stats.Add(o)
	}

	t.logSummary(stats)
	return &Pack{LocalizedStrings: results}, stats
}
