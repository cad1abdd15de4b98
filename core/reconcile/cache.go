package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"dem-manager/core/source"

	"golang.org/x/sync/singleflight"
)

// Reconciler compares the views of sources and keeps their indices for ttl.
type Reconciler struct {
	indexer Indexer
	ttl     time.Duration

	mu      sync.RWMutex
	indices map[string]*Index
	sf      singleflight.Group
}

// New creates a reconciler. A zero ttl rebuilds the index on every call.
func New(indexer Indexer, ttl time.Duration) *Reconciler {
	return &Reconciler{
		indexer: indexer,
		ttl:     ttl,
		indices: make(map[string]*Index),
	}
}

// BuildIndex loads the three views of src concurrently. This function does NOT store
// the index; use Index for that.
func BuildIndex(ctx context.Context, indexer Indexer, src source.Source, ttl time.Duration) (*Index, error) {
	var (
		local     map[string]struct{}
		remote    map[string]struct{}
		ledger    map[string]string
		localErr  error
		remoteErr error
		ledgerErr error
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		local, localErr = indexer.LocalSet(ctx, src)
	}()
	go func() {
		defer wg.Done()
		remote, remoteErr = indexer.RemoteSet(ctx, src)
	}()
	go func() {
		defer wg.Done()
		ledger, ledgerErr = indexer.LedgerIndex(ctx, src)
	}()
	wg.Wait()

	if localErr != nil {
		return nil, localErr
	}
	if ledgerErr != nil {
		return nil, ledgerErr
	}
	listed := true
	if remoteErr != nil {
		if !errors.Is(remoteErr, ErrNotListable) {
			return nil, remoteErr
		}
		listed = false
		remote = map[string]struct{}{}
	}

	return &Index{
		Local:        local,
		Remote:       remote,
		RemoteListed: listed,
		Ledger:       ledger,
		Built:        time.Now(),
		TTL:          ttl,
	}, nil
}

// Index returns the cached index of src, building it when absent or expired.
// Concurrent builds of the same source are collapsed.
func (r *Reconciler) Index(ctx context.Context, src source.Source) (*Index, error) {
	r.mu.RLock()
	idx, ok := r.indices[src.Name]
	r.mu.RUnlock()
	if ok && !idx.IsExpired() {
		return idx, nil
	}

	v, err, _ := r.sf.Do(src.Name, func() (interface{}, error) {
		r.mu.RLock()
		idx, ok := r.indices[src.Name]
		r.mu.RUnlock()
		if ok && !idx.IsExpired() {
			return idx, nil
		}

		built, err := BuildIndex(ctx, r.indexer, src, r.ttl)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.indices[src.Name] = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Invalidate drops the cached index of src.
func (r *Reconciler) Invalidate(src source.Source) {
	r.mu.Lock()
	delete(r.indices, src.Name)
	r.mu.Unlock()
}
