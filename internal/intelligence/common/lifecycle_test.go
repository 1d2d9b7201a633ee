package common

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/additive-lens/pkg/errors"
)

func TestLifecycle_LoadOnce(t *testing.T) {
	l := NewLifecycle[int]()
	assert.Equal(t, StateUninitialized, l.State())

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.Load(context.Background(), fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return l.State() == StateLoading }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	assert.True(t, l.Ready())
	at, _ := l.LoadedAt()
	assert.False(t, at.IsZero())
}

func TestLifecycle_FailureIsSticky(t *testing.T) {
	l := NewLifecycle[string]()
	boom := errors.New("boom")

	_, err := l.Load(context.Background(), func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, l.State())

	_, err = l.Load(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, boom)
	assert.False(t, l.Ready())
}

func TestLifecycle_StartAndWait(t *testing.T) {
	l := NewLifecycle[string]()
	l.Start(context.Background(), func(context.Context) (string, error) { return "catalog", nil })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := l.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "catalog", v)

	select {
	case <-l.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestLifecycle_WaitHonoursContext(t *testing.T) {
	l := NewLifecycle[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateUninitialized, l.State())
}

func TestLifecycle_PanicFailsLoad(t *testing.T) {
	l := NewLifecycle[int]()
	l.Start(context.Background(), func(context.Context) (int, error) {
		panic("bad catalog row")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := l.Wait(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "bad catalog row")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, StateFailed, l.State())
	assert.False(t, l.Ready())

	v, err := l.Load(context.Background(), func(context.Context) (int, error) { return 7, nil })
	require.Error(t, err)
	assert.Zero(t, v)
}
