package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hiretrack/internal/common"
	"hiretrack/internal/domain/notification"
)

type fakeQueue struct {
	mu       sync.Mutex
	requests []notification.Request
	failFor  map[string]error
	block    bool
}

func (q *fakeQueue) Enqueue(ctx context.Context, req notification.Request) error {
	if q.block {
		<-ctx.Done()
		return ctx.Err()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.failFor[req.Recipient]; err != nil {
		return err
	}
	q.requests = append(q.requests, req)
	return nil
}

func TestDispatcherEnqueueStampsRequest(t *testing.T) {
	q := &fakeQueue{}
	d := NewDispatcher(q)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return fixed }

	if err := d.Enqueue(context.Background(), " candidate@example.com ", "Application Submitted", "body"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(q.requests) != 1 {
		t.Fatalf("expected 1 queued request, got %d", len(q.requests))
	}
	got := q.requests[0]
	if got.Recipient != "candidate@example.com" || got.Subject != "Application Submitted" || got.Body != "body" || !got.EnqueuedAt.Equal(fixed) {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestDispatcherRejectsEmptyRecipient(t *testing.T) {
	q := &fakeQueue{}
	err := NewDispatcher(q).Enqueue(context.Background(), "  ", "s", "b")
	if !common.Is(err, common.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(q.requests) != 0 {
		t.Fatal("nothing should be queued")
	}
}

func TestDispatcherWrapsQueueFailure(t *testing.T) {
	cause := errors.New("redis unavailable")
	q := &fakeQueue{failFor: map[string]error{"r@example.com": cause}}
	err := NewDispatcher(q).Enqueue(context.Background(), "r@example.com", "s", "b")
	if !common.Is(err, common.CodeDispatchFailure) {
		t.Fatalf("expected dispatch failure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestDispatcherTimeoutIsDispatchFailure(t *testing.T) {
	q := &fakeQueue{block: true}
	d := NewDispatcher(q, WithEnqueueTimeout(20*time.Millisecond))
	err := d.Enqueue(context.Background(), "r@example.com", "s", "b")
	if !common.Is(err, common.CodeDispatchFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected dispatch failure from deadline, got %v", err)
	}
}

func TestDispatcherEnqueueAllAttemptsEveryRequest(t *testing.T) {
	q := &fakeQueue{failFor: map[string]error{"a@example.com": errors.New("boom")}}
	reqs := []notification.Request{
		{Recipient: "a@example.com", Subject: "one"},
		{Recipient: "b@example.com", Subject: "two"},
		{Recipient: "c@example.com", Subject: "three"},
	}
	err := NewDispatcher(q).EnqueueAll(context.Background(), reqs)
	if !common.Is(err, common.CodeDispatchFailure) {
		t.Fatalf("expected joined dispatch failure, got %v", err)
	}
	if len(q.requests) != 2 {
		t.Fatalf("expected remaining requests to be queued, got %d", len(q.requests))
	}
}
