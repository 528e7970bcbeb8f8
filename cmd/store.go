package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/store"
)

// initStore opens the run registry and applies migrations.
func initStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// openRegistry opens the run registry for recording a tool run. The
// registry is bookkeeping, not the tool's output, so failure to open
// it degrades to a warning and a nil store.
func openRegistry(ctx context.Context, log *zap.Logger) *store.Store {
	st, err := initStore(ctx)
	if err != nil {
		log.Warn("run registry unavailable, continuing without history",
			zap.String("path", cfg.Store.Path),
			zap.Error(err),
		)
		return nil
	}
	return st
}

// recordStart creates the run row. Nil-safe on st.
func recordStart(ctx context.Context, st *store.Store, log *zap.Logger, tool string, params any) *store.Run {
	if st == nil {
		return nil
	}
	run, err := st.CreateRun(ctx, tool, params)
	if err != nil {
		log.Warn("failed to record run start", zap.Error(err))
		return nil
	}
	return run
}

// recordOutcome finalizes the run row according to runErr. Nil-safe on
// st and run; never masks runErr.
func recordOutcome(ctx context.Context, st *store.Store, log *zap.Logger, run *store.Run, output string, runErr error) {
	if st == nil || run == nil {
		return
	}
	var err error
	if runErr != nil {
		err = st.FailRun(ctx, run.ID, runErr)
	} else {
		err = st.CompleteRun(ctx, run.ID, output)
	}
	if err != nil {
		log.Warn("failed to record run outcome",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
}

// closeStore closes st if non-nil.
func closeStore(st *store.Store, log *zap.Logger) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		log.Warn("failed to close run registry", zap.Error(err))
	}
}
