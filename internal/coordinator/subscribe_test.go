package coordinator

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
	return Update{}
}

func TestSubscribe_FanOut(t *testing.T) {
	f := &fakeFetcher{}
	f.queue(fetched("SYSTEM NO: 3"))
	c := New(f)

	a, cancelA := c.Subscribe()
	defer cancelA()
	b, cancelB := c.Subscribe()
	defer cancelB()

	snapshot, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	for _, ch := range []<-chan Update{a, b} {
		u := receive(t, ch)
		if u.Snapshot != snapshot || u.Stale || u.Err != nil {
			t.Errorf("update = %+v, want fresh snapshot", u)
		}
	}
}

func TestSubscribe_StaleAndFailedUpdates(t *testing.T) {
	f := &fakeFetcher{}
	f.queue(fetchResult{err: commErr}, fetched("SYSTEM NO: 3"), fetchResult{err: commErr})
	c := New(f)

	updates, cancel := c.Subscribe()
	defer cancel()

	c.Refresh(context.Background())
	u := receive(t, updates)
	if u.Snapshot != nil || !IsUpdateFailed(u.Err) {
		t.Errorf("first update = %+v, want failure", u)
	}

	cached, _ := c.Refresh(context.Background())
	receive(t, updates)

	c.Refresh(context.Background())
	u = receive(t, updates)
	if !u.Stale || u.Snapshot != cached || u.Cause != commErr {
		t.Errorf("third update = %+v, want stale cached snapshot", u)
	}
}

func TestSubscribe_SlowSubscriberKeepsNewest(t *testing.T) {
	f := &fakeFetcher{}
	f.queue(fetched("SYSTEM NO: 1"), fetched("SYSTEM NO: 2"), fetched("SYSTEM NO: 3"))
	c := New(f)

	updates, cancel := c.Subscribe()
	defer cancel()

	for i := 0; i < 3; i++ {
		c.Refresh(context.Background())
	}

	u := receive(t, updates)
	if *u.Snapshot.SystemNumber != "3" {
		t.Errorf("SystemNumber = %s, want 3 (newest)", *u.Snapshot.SystemNumber)
	}
	select {
	case extra := <-updates:
		t.Errorf("unexpected extra update %+v", extra)
	default:
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	c := New(&fakeFetcher{})

	updates, cancel := c.Subscribe()
	if c.subscriberCount() != 1 {
		t.Fatalf("subscriberCount() = %d, want 1", c.subscriberCount())
	}

	cancel()
	cancel() // idempotent

	if _, ok := <-updates; ok {
		t.Error("channel should be closed after cancel")
	}
	if c.subscriberCount() != 0 {
		t.Errorf("subscriberCount() = %d, want 0", c.subscriberCount())
	}
}
