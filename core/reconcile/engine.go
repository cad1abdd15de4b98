package reconcile

import (
	"context"
	"sort"

	"dem-manager/core/source"
)

// ReconcileAll returns one result per tile seen in any view of src, ordered by id.
func (r *Reconciler) ReconcileAll(ctx context.Context, src source.Source) ([]Result, error) {
	idx, err := r.Index(ctx, src)
	if err != nil {
		return nil, err
	}
	return resultsFrom(idx), nil
}

// ReconcileOne returns the result of a single tile.
func (r *Reconciler) ReconcileOne(ctx context.Context, src source.Source, id string) (Result, error) {
	idx, err := r.Index(ctx, src)
	if err != nil {
		return Result{}, err
	}
	return buildResult(id, idx), nil
}

func resultsFrom(idx *Index) []Result {
	union := make(map[string]struct{}, len(idx.Local)+len(idx.Remote))
	for id := range idx.Local {
		union[id] = struct{}{}
	}
	for id := range idx.Remote {
		union[id] = struct{}{}
	}
	for id := range idx.Ledger {
		union[id] = struct{}{}
	}

	results := make([]Result, 0, len(union))
	for id := range union {
		results = append(results, buildResult(id, idx))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results
}

func buildResult(id string, idx *Index) Result {
	_, local := idx.Local[id]
	_, remote := idx.Remote[id]
	return Result{
		ID:            id,
		LocalPresent:  local,
		RemotePresent: remote,
		LedgerStatus:  idx.Ledger[id],
	}
}
