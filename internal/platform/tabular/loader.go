package tabular

import (
	"context"
	"fmt"
	"time"
)

// Loader reads a set of tables once per call. Before reading it waits for a
// fixed settle delay so that a spreadsheet which was written a moment ago by
// another client has caught up. The wait is unconditional and happens once
// per Load, not per table. A zero delay disables it. A cancelled context
// cuts the wait short.
type Loader struct {
	src   Source
	delay time.Duration
	sleep func(context.Context, time.Duration) error
}

// NewLoader returns a Loader reading from src after waiting delay.
func NewLoader(src Source, delay time.Duration) *Loader {
	return &Loader{src: src, delay: delay, sleep: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Load returns the named tables in the order requested.
func (l *Loader) Load(ctx context.Context, names ...string) ([]*Table, error) {
	if l.delay > 0 {
		if err := l.sleep(ctx, l.delay); err != nil {
			return nil, fmt.Errorf("settle delay: %w", err)
		}
	}

	if bs, ok := l.src.(BatchSource); ok {
		tables, err := bs.Tables(ctx, names...)
		if err != nil {
			return nil, err
		}
		if len(tables) != len(names) {
			return nil, fmt.Errorf("batch read returned %d tables, want %d", len(tables), len(names))
		}
		return tables, nil
	}

	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		t, err := l.src.Table(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}
