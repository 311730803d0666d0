package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_CoalescesToLastCall(t *testing.T) {
	d := New(30 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger("k", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5}, got)
}

func TestTrigger_KeysAreIndependent(t *testing.T) {
	d := New(10 * time.Millisecond)

	var calls int32
	d.Trigger("a", func() { atomic.AddInt32(&calls, 1) })
	d.Trigger("b", func() { atomic.AddInt32(&calls, 1) })

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestCancel_DropsPendingCall(t *testing.T) {
	d := New(20 * time.Millisecond)

	var calls int32
	d.Trigger("k", func() { atomic.AddInt32(&calls, 1) })
	assert.True(t, d.Pending("k"))
	assert.True(t, d.Cancel("k"))
	assert.False(t, d.Pending("k"))
	assert.False(t, d.Cancel("k"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestFlush_RunsPendingImmediately(t *testing.T) {
	d := New(time.Hour)

	var calls int32
	d.Trigger("a", func() { atomic.AddInt32(&calls, 1) })
	d.Trigger("b", func() { atomic.AddInt32(&calls, 1) })

	d.Flush()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.False(t, d.Pending("a"))
	assert.False(t, d.Pending("b"))
}
