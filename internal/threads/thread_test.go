package threads_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/groundwork/internal/plugin/plugintest"
	"github.com/alexisbeaulieu97/groundwork/internal/registry"
	"github.com/alexisbeaulieu97/groundwork/internal/threads"
)

func TestRunRecordsOutcome(t *testing.T) {
	host := plugintest.NewHost(t)
	worker := plugintest.NewPlugin(t, host, "worker", nil)

	var seen registry.Owner
	thread, err := threads.Of(&worker.Base).Register("answer", func(_ context.Context, owner registry.Owner) (any, error) {
		seen = owner
		return 42, nil
	}, "computes the answer")
	require.NoError(t, err)

	response, err := thread.Wait()
	require.NoError(t, err)
	require.Nil(t, response, "never started")

	runID, err := thread.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	response, err = thread.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, response)
	require.Same(t, worker, seen)

	status := thread.Status()
	require.Equal(t, runID, status.RunID)
	require.False(t, status.Running)
	require.False(t, status.Started.IsZero())
	require.False(t, status.Ended.Before(status.Started))
}

func TestRunReportsFailureAndPanic(t *testing.T) {
	host := plugintest.NewHost(t)
	worker := plugintest.NewPlugin(t, host, "worker", nil)
	boom := errors.New("boom")

	failing, err := threads.Of(&worker.Base).Register("failing", func(context.Context, registry.Owner) (any, error) {
		return nil, boom
	}, "")
	require.NoError(t, err)
	_, err = failing.Run(context.Background())
	require.NoError(t, err)
	_, err = failing.Wait()
	require.ErrorIs(t, err, boom)

	panicking, err := threads.Of(&worker.Base).Register("panicking", func(context.Context, registry.Owner) (any, error) {
		panic("kaput")
	}, "")
	require.NoError(t, err)
	_, err = panicking.Run(context.Background())
	require.NoError(t, err)
	_, err = panicking.Wait()
	require.ErrorContains(t, err, "panic: kaput")
}

func TestRunTwiceWhileRunning(t *testing.T) {
	host := plugintest.NewHost(t)
	worker := plugintest.NewPlugin(t, host, "worker", nil)

	release := make(chan struct{})
	thread, err := threads.Of(&worker.Base).Register("blocking", func(context.Context, registry.Owner) (any, error) {
		<-release
		return "done", nil
	}, "")
	require.NoError(t, err)

	_, err = thread.Run(context.Background())
	require.NoError(t, err)
	require.True(t, thread.Running())

	_, err = thread.Run(context.Background())
	require.ErrorIs(t, err, threads.ErrAlreadyRunning)

	close(release)
	response, err := thread.Wait()
	require.NoError(t, err)
	require.Equal(t, "done", response)

	second, err := thread.Run(context.Background())
	require.NoError(t, err)
	_, err = thread.Wait()
	require.NoError(t, err)
	require.Equal(t, second, thread.Status().RunID)
}

func TestDeactivationStopsThreads(t *testing.T) {
	host := plugintest.NewHost(t)
	var thread *threads.Thread
	worker := plugintest.NewPlugin(t, host, "worker", func(p *plugintest.Plugin) error {
		var err error
		thread, err = threads.Of(&p.Base).Register("loop", func(ctx context.Context, _ registry.Owner) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}, "")
		if err != nil {
			return err
		}
		_, err = thread.Run(context.Background())
		return err
	})

	require.NoError(t, host.Plugins().Activate("worker"))
	require.Len(t, threads.Of(&worker.Base).List(), 1)

	require.NoError(t, host.Plugins().Deactivate("worker"))
	require.Empty(t, threads.For(host).List(nil))

	finished := make(chan error, 1)
	go func() {
		_, err := thread.Wait()
		finished <- err
	}()
	select {
	case err := <-finished:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("thread was not stopped by deactivation")
	}
}

func TestRegisterDuplicateThread(t *testing.T) {
	host := plugintest.NewHost(t)
	alpha := plugintest.NewPlugin(t, host, "alpha", nil)
	beta := plugintest.NewPlugin(t, host, "beta", nil)
	noop := func(context.Context, registry.Owner) (any, error) { return nil, nil }

	_, err := threads.Of(&alpha.Base).Register("sync", noop, "")
	require.NoError(t, err)
	_, err = threads.Of(&beta.Base).Register("sync", noop, "")
	var exists threads.ErrThreadExists
	require.ErrorAs(t, err, &exists)
	require.Equal(t, "alpha", exists.Owner)

	_, err = threads.Of(&alpha.Base).Register("nil_function", nil, "")
	require.Error(t, err)
}
