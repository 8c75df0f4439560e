package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meet-lab/domain"
)

func TestCoordinator_SerializesPerMeeting(t *testing.T) {
	req := require.New(t)
	coordinator := NewCoordinator(slog.Default(), 16, time.Minute)
	ctx := context.Background()

	// An unsynchronized counter: only serial execution keeps it exact
	counter := 0
	var wg sync.WaitGroup
	const submitters = 50
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := coordinator.Execute(ctx, "m-1", func() error {
				value := counter
				time.Sleep(time.Millisecond)
				counter = value + 1
				return nil
			})
			req.NoError(err)
		}()
	}
	wg.Wait()

	req.Equal(submitters, counter)
}

func TestCoordinator_TaskErrorReachesSubmitter(t *testing.T) {
	req := require.New(t)
	coordinator := NewCoordinator(slog.Default(), 4, time.Minute)

	wanted := context.DeadlineExceeded
	err := coordinator.Execute(context.Background(), "m-1", func() error {
		return wanted
	})

	req.ErrorIs(err, wanted)
}

func TestCoordinator_PanicIsContained(t *testing.T) {
	req := require.New(t)
	coordinator := NewCoordinator(slog.Default(), 4, time.Minute)
	ctx := context.Background()

	// Given a task that panics
	err := coordinator.Execute(ctx, "m-1", func() error {
		panic("boom")
	})
	req.Error(err)

	// Then the inbox survives and keeps serving
	err = coordinator.Execute(ctx, "m-1", func() error { return nil })
	req.NoError(err)
}

func TestCoordinator_CancelledSubmitter(t *testing.T) {
	req := require.New(t)
	coordinator := NewCoordinator(slog.Default(), 4, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocker := make(chan struct{})
	go func() {
		_ = coordinator.Execute(context.Background(), "m-1", func() error {
			<-blocker
			return nil
		})
	}()
	// Give the blocking task time to occupy the inbox
	time.Sleep(50 * time.Millisecond)

	err := coordinator.Execute(ctx, "m-1", func() error { return nil })
	req.ErrorIs(err, context.Canceled)
	close(blocker)
}

func TestCoordinator_ReapsIdleInboxes(t *testing.T) {
	req := require.New(t)
	coordinator := NewCoordinator(slog.Default(), 4, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	janitorDone := make(chan error, 1)
	go func() { janitorDone <- coordinator.Run(ctx) }()

	req.NoError(coordinator.Execute(ctx, "m-1", func() error { return nil }))
	req.Contains(coordinator.InboxDepths(), domain.MeetingID("m-1"))

	// The janitor reaps the idle inbox after the TTL
	req.Eventually(func() bool {
		_, alive := coordinator.InboxDepths()["m-1"]
		return !alive
	}, time.Second, 10*time.Millisecond)

	// A later dispatch recreates it transparently
	req.NoError(coordinator.Execute(ctx, "m-1", func() error { return nil }))

	cancel()
	req.ErrorIs(<-janitorDone, context.Canceled)
}
