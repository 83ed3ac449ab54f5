package service

import (
	"context"
	"sync"
)

// dirImports serializes seed imports per directory. A watcher or cron
// request that arrives while the directory is being imported is folded into
// a single follow-up run, so a file change seen mid-import is not lost.
type dirImports struct {
	mu      sync.Mutex
	pending map[string]bool // claimed dirs; true when a follow-up is queued
	wg      sync.WaitGroup
}

// begin claims dir and reports whether the caller should import it. When
// dir is already claimed and queue is set, the current holder is asked to
// run once more.
func (d *dirImports) begin(dir string, queue bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		d.pending = make(map[string]bool)
	}
	if _, busy := d.pending[dir]; busy {
		if queue {
			d.pending[dir] = true
		}
		return false
	}
	d.pending[dir] = false
	d.wg.Add(1)
	return true
}

// finish is called by the holder after each run. It returns true, keeping
// the claim, when a follow-up was queued and retry is set. Otherwise dir is
// released.
func (d *dirImports) finish(dir string, retry bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if retry && d.pending[dir] {
		d.pending[dir] = false
		return true
	}
	delete(d.pending, dir)
	d.wg.Done()
	return false
}

// wait blocks until no directory is claimed or ctx is done.
func (d *dirImports) wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
