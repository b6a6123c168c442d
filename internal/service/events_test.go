package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()

	const workers = 16
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locks.Lock("2:post:10:like")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
	require.Empty(t, locks.locks, "released keys must not leak")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("a")
	defer unlockA()

	// A different key is acquired without waiting on the first one.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
}
