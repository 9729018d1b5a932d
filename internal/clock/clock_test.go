package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestVirtual_FiresInDueOrder(t *testing.T) {
	v := NewVirtual(epoch)
	var order []string

	v.Schedule(200*time.Millisecond, func() { order = append(order, "b") })
	v.Schedule(100*time.Millisecond, func() { order = append(order, "a") })
	v.Schedule(200*time.Millisecond, func() { order = append(order, "c") })

	assert.Equal(t, 0, v.Advance(99*time.Millisecond))
	assert.Empty(t, order)

	assert.Equal(t, 3, v.Advance(101*time.Millisecond))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, epoch.Add(200*time.Millisecond), v.Now())
	assert.Zero(t, v.Pending())
}

func TestVirtual_NestedScheduleWithinWindow(t *testing.T) {
	v := NewVirtual(epoch)
	var stamps []time.Time

	v.Schedule(time.Second, func() {
		stamps = append(stamps, v.Now())
		v.Schedule(time.Second, func() { stamps = append(stamps, v.Now()) })
	})

	require.Equal(t, 2, v.Advance(3*time.Second))
	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(2 * time.Second)}, stamps)
	assert.Equal(t, epoch.Add(3*time.Second), v.Now())
}

func TestVirtual_RunUntilIdle(t *testing.T) {
	v := NewVirtual(epoch)
	count := 0
	var chain func()
	chain = func() {
		count++
		if count < 5 {
			v.Schedule(1500*time.Millisecond, chain)
		}
	}
	v.Schedule(time.Second, chain)

	fired := v.RunUntilIdle(0)
	assert.Equal(t, 5, fired)
	assert.Equal(t, 5, count)
	assert.Equal(t, epoch.Add(time.Second+4*1500*time.Millisecond), v.Now())

	_, ok := v.NextDue()
	assert.False(t, ok)
}

func TestVirtual_NegativeDelayIsImmediate(t *testing.T) {
	v := NewVirtual(epoch)
	fired := false
	v.Schedule(-time.Second, func() { fired = true })
	v.Advance(0)
	assert.True(t, fired)
	assert.Equal(t, epoch, v.Now())
}

func TestQueue_DrainForgets(t *testing.T) {
	q := NewQueue(func() time.Time { return epoch })
	q.Schedule(time.Second, func() {})
	q.Schedule(-1, func() {})

	assert.Equal(t, epoch, q.Now())
	items := q.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, time.Second, items[0].Delay)
	assert.Equal(t, time.Duration(0), items[1].Delay)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Drain())
}

func TestLoop_RunUntilIdleExecutesSerially(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var order []int
	l.Schedule(20*time.Millisecond, func() { order = append(order, 2) })
	l.Schedule(5*time.Millisecond, func() {
		order = append(order, 1)
		l.Schedule(5*time.Millisecond, func() { order = append(order, 3) })
	})
	l.Post(func() { order = append(order, 0) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.RunUntilIdle(ctx))

	assert.ElementsMatch(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, 0, order[0])
	assert.Zero(t, l.Pending())
}

func TestLoop_CloseStopsTimers(t *testing.T) {
	l := NewLoop()
	fired := false
	l.Schedule(time.Hour, func() { fired = true })
	require.Equal(t, 1, l.Pending())

	l.Close()
	assert.Zero(t, l.Pending())

	err := l.Run(context.Background())
	assert.True(t, errors.Is(err, ErrLoopClosed))
	assert.False(t, fired)

	// Scheduling after close is a no-op.
	l.Schedule(time.Millisecond, func() { fired = true })
	l.Post(func() { fired = true })
	assert.Zero(t, l.Pending())
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l.Post(cancel)
	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
