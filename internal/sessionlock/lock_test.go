package sessionlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameSession(t *testing.T) {
	k := New()

	var order []int
	unlock := k.Lock("sess-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		u := k.Lock("sess-1")
		order = append(order, 2)
		u()
	}()

	time.Sleep(10 * time.Millisecond)
	order = append(order, 1)
	unlock()
	<-done

	assert.Equal(t, []int{1, 2}, order)
}

func TestDifferentSessionsDoNotBlock(t *testing.T) {
	k := New()

	unlock := k.Lock("sess-1")
	defer unlock()

	acquired := make(chan struct{})
	go func() {
		u := k.Lock("sess-2")
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on another session should not block")
	}
}

func TestUnlockAllowsReacquire(t *testing.T) {
	k := New()

	unlock := k.Lock("sess-1")
	unlock()

	again := k.Lock("sess-1")
	again()
}

func TestConcurrentIncrementsUnderLock(t *testing.T) {
	k := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("sess-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}
