package reconcile

import (
	"context"
	"fmt"

	"dem-manager/core/source"
	"dem-manager/core/tile"
)

// Executor performs the actions of a plan.
type Executor interface {
	Download(ctx context.Context, src source.Source, id string) error
	Forget(ctx context.Context, id string) error
}

// inFlight lists the ledger statuses of downloads that never completed.
var inFlight = map[string]bool{
	tile.StatusDownloadScheduled.String(): true,
	tile.StatusDownloading.String():       true,
	tile.StatusDownloadFailed.String():    true,
}

// ReconcileWithPlan reconciles src and plans the repairs allowed by opts. It does NOT
// execute actions; use ApplyPlan for that.
func (r *Reconciler) ReconcileWithPlan(ctx context.Context, src source.Source, opts Options) (*Plan, error) {
	idx, err := r.Index(ctx, src)
	if err != nil {
		return nil, err
	}

	results := resultsFrom(idx)
	plan := &Plan{
		Source:  src.Name,
		Results: results,
		Actions: []Action{},
		Summary: Summary{Total: len(results), RemoteListed: idx.RemoteListed},
	}

	for _, res := range results {
		if res.LocalPresent {
			plan.Summary.Local++
		}
		if res.RemotePresent && !res.LocalPresent {
			plan.Summary.MissingLocal++
			if opts.Download {
				plan.Actions = append(plan.Actions, Action{
					Type:   ActionDownload,
					Key:    res.ID,
					Reason: "listed remotely, missing locally",
				})
				plan.Summary.DownloadActions++
			}
		}

		if reason, stale := staleLedger(res); stale {
			plan.Summary.StaleLedger++
			if opts.Forget {
				plan.Actions = append(plan.Actions, Action{Type: ActionForget, Key: res.ID, Reason: reason})
				plan.Summary.ForgetActions++
			}
		}
	}
	return plan, nil
}

// staleLedger reports whether the ledger row of res contradicts the directory.
func staleLedger(res Result) (string, bool) {
	switch {
	case res.LedgerStatus == "":
		return "", false
	case res.LocalPresent && inFlight[res.LedgerStatus]:
		return fmt.Sprintf("file present, ledger reports %s", res.LedgerStatus), true
	case !res.LocalPresent && !inFlight[res.LedgerStatus]:
		return "ledger reports a completed download, file missing", true
	default:
		return "", false
	}
}

// ApplyPlan executes the actions of plan and returns how many succeeded. Forget actions
// run first so a download starts from a clean ledger row. Nothing runs in dry-run mode.
func (r *Reconciler) ApplyPlan(ctx context.Context, src source.Source, plan *Plan, opts Options, exec Executor) (executed int, err error) {
	if opts.DryRun {
		return 0, nil
	}
	defer r.Invalidate(src)

	for _, a := range plan.Actions {
		if a.Type != ActionForget {
			continue
		}
		if err := exec.Forget(ctx, a.Key); err != nil {
			return executed, fmt.Errorf("failed to forget %s: %w", a.Key, err)
		}
		executed++
	}
	for _, a := range plan.Actions {
		if a.Type != ActionDownload {
			continue
		}
		if err := exec.Download(ctx, src, a.Key); err != nil {
			return executed, fmt.Errorf("failed to download %s: %w", a.Key, err)
		}
		executed++
	}
	return executed, nil
}

// ReconcileAndApply plans and, unless opts.DryRun, applies the repairs of src.
func (r *Reconciler) ReconcileAndApply(ctx context.Context, src source.Source, opts Options, exec Executor) (*Plan, int, error) {
	plan, err := r.ReconcileWithPlan(ctx, src, opts)
	if err != nil {
		return nil, 0, err
	}
	executed, err := r.ApplyPlan(ctx, src, plan, opts, exec)
	return plan, executed, err
}
