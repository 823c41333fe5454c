package tabular

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	tables map[string]*Table
	calls  []string
}

func (f *fakeSource) Table(_ context.Context, name string) (*Table, error) {
	f.calls = append(f.calls, name)
	t, ok := f.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

type fakeBatchSource struct {
	fakeSource
	batches int
}

func (f *fakeBatchSource) Tables(ctx context.Context, names ...string) ([]*Table, error) {
	f.batches++
	out := make([]*Table, 0, len(names))
	for _, n := range names {
		t, err := f.fakeSource.Table(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{tables: map[string]*Table{
		"Calculator":     {Name: "Calculator"},
		"Boy's Centile":  {Name: "Boy's Centile"},
		"Girl's Centile": {Name: "Girl's Centile"},
	}}
}

func TestLoader_SleepsOncePerLoad(t *testing.T) {
	src := newFakeSource()
	l := NewLoader(src, 750*time.Millisecond)

	var slept []time.Duration
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	tables, err := l.Load(context.Background(), "Calculator", "Boy's Centile", "Girl's Centile")
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{750 * time.Millisecond}, slept)
	require.Len(t, tables, 3)
	assert.Equal(t, "Calculator", tables[0].Name)
	assert.Equal(t, "Girl's Centile", tables[2].Name)
	assert.Equal(t, []string{"Calculator", "Boy's Centile", "Girl's Centile"}, src.calls)
}

func TestLoader_ZeroDelayDoesNotSleep(t *testing.T) {
	l := NewLoader(newFakeSource(), 0)
	l.sleep = func(context.Context, time.Duration) error {
		t.Fatal("unexpected sleep")
		return nil
	}

	_, err := l.Load(context.Background(), "Calculator")
	require.NoError(t, err)
}

func TestLoader_SleepsEvenWhenReadFails(t *testing.T) {
	l := NewLoader(newFakeSource(), time.Second)
	slept := 0
	l.sleep = func(context.Context, time.Duration) error {
		slept++
		return nil
	}

	_, err := l.Load(context.Background(), "Missing")
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.Equal(t, 1, slept)
}

func TestLoader_UsesBatchSource(t *testing.T) {
	src := &fakeBatchSource{fakeSource: *newFakeSource()}
	l := NewLoader(src, 0)

	tables, err := l.Load(context.Background(), "Boy's Centile", "Calculator")
	require.NoError(t, err)
	assert.Equal(t, 1, src.batches)
	assert.Equal(t, "Boy's Centile", tables[0].Name)
	assert.Equal(t, "Calculator", tables[1].Name)
}

func TestLoader_CancelledDuringDelay(t *testing.T) {
	src := newFakeSource()
	l := NewLoader(src, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := l.Load(ctx, "Calculator")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Minute)
	assert.Empty(t, src.calls)
}
