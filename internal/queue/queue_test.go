package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DrainsAfterCloseSend(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))
	q.CloseSend()

	v, ok := q.Recv()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Recv()
	assert.False(t, ok, "exhausted queue must report closed")
}

func TestQueue_SendAfterCloseRecv(t *testing.T) {
	t.Parallel()

	q := New[string](1)
	q.CloseRecv()

	assert.ErrorIs(t, q.Send("x"), ErrConsumerClosed)
	assert.True(t, q.ConsumerClosed())

	_, ok := q.Recv()
	assert.False(t, ok)
}

func TestQueue_CloseRecvUnblocksSender(t *testing.T) {
	t.Parallel()

	q := New[int](1)
	require.NoError(t, q.Send(1)) // fill the buffer

	errc := make(chan error, 1)
	go func() {
		errc <- q.Send(2)
	}()

	// Sender must still be blocked.
	select {
	case err := <-errc:
		t.Fatalf("send returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	q.CloseRecv()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrConsumerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not unblock after CloseRecv")
	}
}

func TestQueue_CloseIdempotent(t *testing.T) {
	t.Parallel()

	q := New[int](0)
	assert.NotPanics(t, func() {
		q.CloseSend()
		q.CloseSend()
		q.CloseRecv()
		q.CloseRecv()
	})
}

func TestQueue_MultiProducerMultiConsumer(t *testing.T) {
	t.Parallel()

	const producers, perProducer, consumers = 4, 250, 3
	q := New[int](producers + 3)

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for i := range perProducer {
				assert.NoError(t, q.Send(p*perProducer+i))
			}
		}()
	}
	go func() {
		pwg.Wait()
		q.CloseSend()
	}()

	var mu sync.Mutex
	seen := make(map[int]bool)
	var cwg sync.WaitGroup
	for range consumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Recv()
				if !ok {
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	cwg.Wait()

	assert.Len(t, seen, producers*perProducer)
}

func TestQueue_Capacity(t *testing.T) {
	t.Parallel()

	q := New[int](3)
	assert.Equal(t, 3, q.Cap())
	require.NoError(t, q.Send(7))
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 0, New[int](-1).Cap())
}
