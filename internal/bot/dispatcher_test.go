package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	d := newDispatcher(64, time.Second, nil)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, d.dispatch(1, func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	d.shutdown()

	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDispatcherRunsUsersConcurrently(t *testing.T) {
	d := newDispatcher(1, time.Second, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	d.dispatch(1, func() {
		close(started)
		<-release
	})
	<-started

	done := make(chan struct{})
	d.dispatch(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 was blocked by user 1")
	}
	assert.Equal(t, 2, d.workers())

	close(release)
	d.shutdown()
	assert.Equal(t, 0, d.workers())
}

func TestDispatcherFullQueueDoesNotBlockOthers(t *testing.T) {
	d := newDispatcher(2, time.Second, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, d.dispatch(1, func() {
		close(started)
		<-release
	}))
	<-started

	var ran sync.WaitGroup
	ran.Add(2)
	for i := 0; i < 2; i++ {
		require.True(t, d.dispatch(1, ran.Done))
	}

	result := make(chan bool, 1)
	go func() { result <- d.dispatch(1, func() {}) }()
	select {
	case queued := <-result:
		assert.False(t, queued, "job beyond a full queue is dropped")
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full queue")
	}

	done := make(chan struct{})
	require.True(t, d.dispatch(2, func() { close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 was stuck behind user 1's full queue")
	}

	close(release)
	ran.Wait()
	d.shutdown()
	assert.Equal(t, 0, d.workers())
}

func TestDispatcherIdleWorkerExits(t *testing.T) {
	d := newDispatcher(1, 10*time.Millisecond, nil)

	ran := make(chan struct{})
	d.dispatch(1, func() { close(ran) })
	<-ran

	require.Eventually(t, func() bool { return d.workers() == 0 }, time.Second, 5*time.Millisecond)

	again := make(chan struct{})
	d.dispatch(1, func() { close(again) })
	<-again
	d.shutdown()
}
