package notification

import (
	"context"
	"time"
)

// Topic is the logical queue every notification request is published on.
const Topic = "notifications"

// Request is the exact payload a worker delivers. It is never re-derived from
// application state after it has been queued.
type Request struct {
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Delivery is a request handed to a consumer together with the queue's
// bookkeeping for it.
type Delivery struct {
	ID       string
	Attempts int
	Request  Request
}

// Queue is the producer side of the durable work queue.
type Queue interface {
	Enqueue(ctx context.Context, req Request) error
}

// Consumer is the worker side. Receive blocks until a delivery is available or
// ctx is done; it returns (nil, nil) when a poll window elapses with no work.
// Retry scheduling and dead-lettering after Nack belong to the queue.
type Consumer interface {
	Receive(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Nack(ctx context.Context, d *Delivery, cause error) error
}

// Message is what a transport sends.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
}
