package cleanup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) PurgeCache() int {
	p.calls.Add(1)
	return 1
}

func TestService_PurgesPeriodically(t *testing.T) {
	purger := &countingPurger{}
	svc := NewService(purger, 10*time.Millisecond)

	svc.Start(context.Background())
	assert.Eventually(t, func() bool {
		return purger.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	svc.Stop()

	stopped := purger.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, purger.calls.Load(), "no purges after Stop")
}

func TestService_DisabledWithoutInterval(t *testing.T) {
	purger := &countingPurger{}
	svc := NewService(purger, 0)

	svc.Start(context.Background())
	svc.Stop()

	assert.Equal(t, int32(0), purger.calls.Load())
}

func TestService_StartIsIdempotent(t *testing.T) {
	purger := &countingPurger{}
	svc := NewService(purger, time.Hour)

	svc.Start(context.Background())
	done := svc.done
	svc.Start(context.Background())

	assert.Equal(t, done, svc.done)
	svc.Stop()
}

func TestService_StopsWithContext(t *testing.T) {
	purger := &countingPurger{}
	svc := NewService(purger, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	svc.Start(ctx)
	cancel()

	select {
	case <-svc.done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not exit after context cancellation")
	}
}
