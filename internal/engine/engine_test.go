package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignite/internal/engine"
	"github.com/iamNilotpal/ignite/pkg/logger"
	"github.com/iamNilotpal/ignite/pkg/options"
)

func newEngine(t *testing.T, optFns ...options.OptionFunc) *engine.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	options.WithDataDir(t.TempDir())(&opts)
	opts.CompactInterval = 0
	for _, fn := range optFns {
		fn(&opts)
	}

	e, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)
	return e
}

func TestEngineSetGetClose(t *testing.T) {
	e := newEngine(t)

	require.NoError(t, e.Set([]byte("a"), []byte("1")))
	v, ok, err := e.Get([]byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), v)

	require.NoError(t, e.Close())
	require.ErrorIs(t, e.Set([]byte("b"), []byte("2")), engine.ErrEngineClosed)
	require.ErrorIs(t, e.Close(), engine.ErrEngineClosed)
}

func TestEngineCloseStopsBackgroundCompactionLoop(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	options.WithDataDir(dir)(&opts)
	opts.CompactInterval = time.Hour
	options.WithMaxLogFileSize(32)(&opts)

	e, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Set([]byte("k"), []byte{byte(i)}))
	}

	// All writes complete before any background tick is due (interval is an
	// hour); Close stops the loop cleanly regardless of whether it ever fired.
	require.NoError(t, e.Close())

	e2, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: logger.Nop()})
	require.NoError(t, err)
	defer e2.Close()

	v, ok, err := e2.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{9}, v)
}
