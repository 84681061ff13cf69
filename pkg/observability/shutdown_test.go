package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *Logger {
	return NewLogger(ErrorLevel, &bytes.Buffer{})
}

func TestShutdownRunsFuncs(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), time.Second, &http.Server{Addr: "127.0.0.1:0"})

	var calls int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc("counter", func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestShutdownCollectsErrors(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), time.Second)
	sm.RegisterShutdownFunc("redis", func(ctx context.Context) error { return errors.New("redis close") })
	sm.RegisterShutdownFunc("noop", func(ctx context.Context) error { return nil })

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
	assert.Contains(t, err.Error(), "redis: redis close")
}

func TestShutdownTimeout(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), 50*time.Millisecond)
	sm.RegisterShutdownFunc("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	err := sm.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestWaitForShutdownOnParentCancel(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- sm.WaitForShutdown(ctx) }()

	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}

func TestWaitForContext(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), time.Second)
	done := make(chan struct{})
	sm.RegisterShutdownFunc("signal", func(ctx context.Context) error {
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- sm.WaitForContext(ctx) }()

	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	<-done
}

func TestNewShutdownManagerDefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(quietLogger(), 0)
	assert.Equal(t, 30*time.Second, sm.shutdownTimeout)
}
