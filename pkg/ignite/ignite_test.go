package ignite_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/pkg/ignite"
	"github.com/iamNilotpal/ignite/pkg/options"
)

func newInstance(t *testing.T, optFns ...options.OptionFunc) *ignite.Instance {
	t.Helper()
	fns := append([]options.OptionFunc{options.WithDataDir(t.TempDir())}, optFns...)
	inst, err := ignite.NewInstance(context.Background(), "ignite-test", fns...)
	require.NoError(t, err)
	return inst
}

func TestInstanceSetGetDelete(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)
	defer inst.Close(ctx)

	require.NoError(t, inst.Set(ctx, "hello", []byte("world")))

	v, ok, err := inst.Get(ctx, "hello")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("world"), v)

	require.NoError(t, inst.Delete(ctx, "hello"))
	_, ok, err = inst.Get(ctx, "hello")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInstanceCloneSharesEngine(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	clone := inst.Clone()
	require.NoError(t, inst.Set(ctx, "shared", []byte("value")))

	v, ok, err := clone.Get(ctx, "shared")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), v)

	require.NoError(t, inst.Close(ctx))
	require.ErrorIs(t, clone.Set(ctx, "x", []byte("y")), ignite.ErrClosed)
}

func TestInstanceConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)
	defer inst.Close(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			clone := inst.Clone()
			require.NoError(t, clone.Set(ctx, "counter", []byte{byte(n)}))
		}(i)
	}
	wg.Wait()

	_, ok, err := inst.Get(ctx, "counter")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInstanceCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	inst := newInstance(t)

	require.NoError(t, inst.Close(ctx))
	require.ErrorIs(t, inst.Close(ctx), ignite.ErrClosed)
}
