package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dem-manager/core/fetch"
	"dem-manager/core/reconcile"
	"dem-manager/core/source"
	"dem-manager/core/tile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reconcileCmd represents the tiles reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare a source directory with its remote store and the download ledger",
	Long: `Lists the tiles present locally, remotely and in the download ledger of a source.
With --download, tiles listed remotely but missing locally are downloaded.
With --forget, ledger rows contradicted by the directory are removed.
Use --dry-run to only print the plan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("source")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		opts := reconcile.Options{}
		opts.Download, _ = cmd.Flags().GetBool("download")
		opts.Forget, _ = cmd.Flags().GetBool("forget")
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

		return withEngine(cmd, func(ctx context.Context, e *engine) error {
			src, ok := findSource(e.sources, name)
			if !ok {
				return fmt.Errorf("unknown source %q", name)
			}

			startTime := time.Now()
			r := reconcile.New(reconcile.TileIndexer{Client: e.store, Ledger: e.ledger}, 0)
			exec := &fetchExecutor{engine: e}
			defer exec.close()

			plan, executed, err := r.ReconcileAndApply(ctx, src, opts, exec)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Println("\n=== Reconcile ===")
			fmt.Printf("Source: %s\n", plan.Source)
			fmt.Printf("Total Tiles: %d\n", plan.Summary.Total)
			fmt.Printf("Local: %d\n", plan.Summary.Local)
			if plan.Summary.RemoteListed {
				fmt.Printf("Missing Locally: %d\n", plan.Summary.MissingLocal)
			} else {
				fmt.Println("Missing Locally: unknown (remote not listable)")
			}
			fmt.Printf("Stale Ledger Rows: %d\n", plan.Summary.StaleLedger)
			for _, a := range plan.Actions {
				fmt.Printf("  %-8s %s  %s\n", a.Type, a.Key, a.Reason)
			}
			fmt.Printf("Executed: %d\n", executed)
			fmt.Printf("Execution Time: %s\n", time.Since(startTime).String())

			e.logger.Info("Reconcile completed",
				zap.String("source", plan.Source),
				zap.Int("actions", len(plan.Actions)),
				zap.Int("executed", executed),
				zap.Bool("dry_run", opts.DryRun))
			return nil
		})
	},
}

func findSource(sources []source.Source, name string) (source.Source, bool) {
	for _, s := range sources {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return source.Source{}, false
}

// fetchExecutor downloads through a dedicated fetch pool and waits for each tile.
type fetchExecutor struct {
	engine *engine
	pool   *fetch.Pool
}

func (x *fetchExecutor) Download(ctx context.Context, src source.Source, id string) error {
	if x.pool == nil {
		var opts []fetch.Option
		if x.engine.store != nil {
			opts = append(opts, fetch.WithStorage(x.engine.store))
		}
		x.pool = fetch.NewPool(x.engine.cfg.Fetch, x.engine.logger, opts...)
	}

	done := make(chan error, 1)
	l := &waitListener{engine: x.engine, source: src.Name, done: done}
	if err := x.pool.Fetch(id, src, l); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (x *fetchExecutor) Forget(ctx context.Context, id string) error {
	return x.engine.ledger.Forget(ctx, id)
}

func (x *fetchExecutor) close() {
	if x.pool != nil {
		_ = x.pool.Close()
	}
}

// waitListener records download outcomes in the ledger and reports completion.
type waitListener struct {
	engine *engine
	source string
	done   chan<- error
}

func (l *waitListener) OnStarted(id string) {
	l.record(id, tile.StatusDownloading, nil)
}

func (l *waitListener) OnSucceeded(id, path string, typ tile.Type) {
	l.record(id, tile.StatusReadingScheduled, nil)
	l.engine.logger.Info("Tile downloaded", zap.String("tile", id), zap.String("path", path))
	l.done <- nil
}

func (l *waitListener) OnFailed(id string, err error) {
	l.record(id, tile.StatusDownloadFailed, err)
	l.done <- err
}

func (l *waitListener) record(id string, status tile.Status, cause error) {
	if err := l.engine.ledger.Record(context.Background(), id, l.source, status, cause); err != nil {
		l.engine.logger.Warn("Download not recorded", zap.String("tile", id), zap.Error(err))
	}
}

func init() {
	tilesCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("source", "SRTM3", "Source name (SRTM1, SRTM3)")
	reconcileCmd.Flags().Bool("download", false, "Download tiles listed remotely but missing locally")
	reconcileCmd.Flags().Bool("forget", false, "Remove ledger rows contradicted by the directory")
	reconcileCmd.Flags().Bool("dry-run", false, "Only print the plan")
	reconcileCmd.Flags().Bool("json", false, "Print the plan as JSON")
}
