package caselock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerializesSameCase(t *testing.T) {
	l := NewLocal()

	unlock, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 7)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // segunda chamada não deve travar

	unlock2, err := l.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock2()
	assert.Equal(t, 0, l.Held())
}

func TestLocalEvictsIdleCases(t *testing.T) {
	l := NewLocal()
	for id := uint(1); id <= 50; id++ {
		unlock, err := l.Lock(context.Background(), id)
		require.NoError(t, err)
		unlock()
	}
	assert.Equal(t, 0, l.Held())

	unlock, err := l.Lock(context.Background(), 3)
	require.NoError(t, err)

	waiting := make(chan error, 1)
	go func() {
		u, err := l.Lock(context.Background(), 3)
		if err == nil {
			u()
		}
		waiting <- err
	}()

	// quem espera mantém a entrada viva depois do primeiro unlock
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, l.Held())
	unlock()
	require.NoError(t, <-waiting)
	assert.Equal(t, 0, l.Held())
}

func TestRefreshEvery(t *testing.T) {
	assert.Equal(t, 15*time.Second, refreshEvery(30*time.Second))
	assert.Equal(t, 500*time.Millisecond, refreshEvery(time.Millisecond))
}

func TestLocalIndependentCases(t *testing.T) {
	l := NewLocal()

	u1, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer u1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u2, err := l.Lock(ctx, 2)
	require.NoError(t, err)
	u2()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "case-lock:42", Key(42))
}
