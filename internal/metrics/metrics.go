package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

type Collector struct {
	requests         uint64
	errors           uint64
	submissions      uint64
	stageChanges     uint64
	dispatchFailures uint64
	deliveries       uint64
	deliveryFailures uint64
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) IncRequests() {
	atomic.AddUint64(&c.requests, 1)
}

func (c *Collector) IncErrors() {
	atomic.AddUint64(&c.errors, 1)
}

func (c *Collector) IncSubmissions() {
	atomic.AddUint64(&c.submissions, 1)
}

func (c *Collector) IncStageChanges() {
	atomic.AddUint64(&c.stageChanges, 1)
}

func (c *Collector) IncDispatchFailures() {
	atomic.AddUint64(&c.dispatchFailures, 1)
}

func (c *Collector) IncDeliveries() {
	atomic.AddUint64(&c.deliveries, 1)
}

func (c *Collector) IncDeliveryFailures() {
	atomic.AddUint64(&c.deliveryFailures, 1)
}

type Snapshot struct {
	Requests         uint64
	Errors           uint64
	Submissions      uint64
	StageChanges     uint64
	DispatchFailures uint64
	Deliveries       uint64
	DeliveryFailures uint64
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Requests:         atomic.LoadUint64(&c.requests),
		Errors:           atomic.LoadUint64(&c.errors),
		Submissions:      atomic.LoadUint64(&c.submissions),
		StageChanges:     atomic.LoadUint64(&c.stageChanges),
		DispatchFailures: atomic.LoadUint64(&c.dispatchFailures),
		Deliveries:       atomic.LoadUint64(&c.deliveries),
		DeliveryFailures: atomic.LoadUint64(&c.deliveryFailures),
	}
}

type Handler struct {
	collector *Collector
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{collector: collector}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	var snap Snapshot
	if h.collector != nil {
		snap = h.collector.Snapshot()
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	counter(w, "hiretrack_http_requests_total", "Total number of HTTP requests.", snap.Requests)
	counter(w, "hiretrack_http_errors_total", "Total number of 5xx HTTP responses.", snap.Errors)
	counter(w, "hiretrack_applications_submitted_total", "Applications committed by submit.", snap.Submissions)
	counter(w, "hiretrack_stage_changes_total", "Stage transitions committed.", snap.StageChanges)
	counter(w, "hiretrack_dispatch_failures_total", "Notification requests that could not be enqueued.", snap.DispatchFailures)
	counter(w, "hiretrack_notifications_delivered_total", "Notifications handed to the transport successfully.", snap.Deliveries)
	counter(w, "hiretrack_notification_failures_total", "Failed delivery attempts.", snap.DeliveryFailures)
}

func counter(w http.ResponseWriter, name, help string, value uint64) {
	_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	_, _ = fmt.Fprintf(w, "# TYPE %s counter\n", name)
	_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
}
