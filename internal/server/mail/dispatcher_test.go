package mail

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	block chan struct{}
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, logging.NopLogger{}, 8)

	for _, to := range []string{"a@x", "b@x", "c@x"} {
		require.NoError(t, d.Send(context.Background(), Message{To: to}))
	}
	d.Close()

	got := sender.messages()
	require.Len(t, got, 3)
	assert.Equal(t, "a@x", got[0].To)
	assert.Equal(t, "c@x", got[2].To)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, logging.NopLogger{}, 1)

	// The worker takes at most one message and blocks on it; the buffer
	// holds one more, so of three sends at least one must be dropped.
	var dropped int
	for i := 0; i < 3; i++ {
		if err := d.Send(context.Background(), Message{To: "x"}); errors.Is(err, ErrQueueFull) {
			dropped++
		}
	}
	assert.GreaterOrEqual(t, dropped, 1)
	assert.EqualValues(t, dropped, d.Dropped())

	close(sender.block)
	d.Close()
	assert.Len(t, sender.messages(), 3-dropped)
}

func TestDispatcher_FailuresAreCounted(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, logging.NopLogger{}, 2)

	require.NoError(t, d.Send(context.Background(), Message{To: "x"}))
	d.Close()

	assert.EqualValues(t, 1, d.Failed())
}

func TestDispatcher_SendAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, logging.NopLogger{}, 0)
	d.Close()
	d.Close()

	require.ErrorIs(t, d.Send(context.Background(), Message{To: "x"}), ErrDispatcherClosed)
}

func TestDispatcher_AcceptedMessagesSurviveConcurrentClose(t *testing.T) {
	for round := 0; round < 20; round++ {
		sender := &recordingSender{}
		d := NewDispatcher(sender, logging.NopLogger{}, 1024)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 50; j++ {
					if d.Send(context.Background(), Message{To: "x"}) == nil {
						mu.Lock()
						accepted++
						mu.Unlock()
					}
				}
			}()
		}

		close(start)
		d.Close()
		wg.Wait()

		assert.Len(t, sender.messages(), accepted, "round %d", round)
	}
}
