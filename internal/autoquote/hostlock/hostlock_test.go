package hostlock

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLocalSerializesSameHost(t *testing.T) {
	l := NewLocal()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), 7)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if len(l.tails) != 0 {
		t.Fatalf("expected empty queue, got %d", len(l.tails))
	}
}

func TestLocalIndependentHosts(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("lock A: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("host 2 should not wait for host 1: %v", err)
	}
	unlockB()
}

func TestLocalArrivalOrder(t *testing.T) {
	l := NewLocal()
	first, _ := l.Lock(context.Background(), 3)

	order := make(chan int, 3)
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), 3)
			if err != nil {
				t.Errorf("lock %d: %v", n, err)
				return
			}
			order <- n
			unlock()
		}(i)
		// let waiter i enqueue before i+1
		time.Sleep(10 * time.Millisecond)
	}
	first()
	wg.Wait()
	close(order)
	want := 1
	for got := range order {
		if got != want {
			t.Fatalf("expected waiter %d, got %d", want, got)
		}
		want++
	}
}

func TestLocalCancelledWaiterKeepsQueue(t *testing.T) {
	l := NewLocal()
	holder, _ := l.Lock(context.Background(), 9)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Lock(ctx, 9)
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		unlock, err := l.Lock(context.Background(), 9)
		if err == nil {
			unlock()
		}
		close(acquired)
	}()
	holder()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter behind a cancelled slot never acquired the lock")
	}
}

func TestRedisLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	l := NewRedis(rdb, time.Second)
	unlock, err := l.Lock(context.Background(), 42)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, 42); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second lock to time out, got %v", err)
	}
	unlock()
	unlock2, err := l.Lock(context.Background(), 42)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	unlock2()
}
