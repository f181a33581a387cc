package metrics

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestCollectorCountsConcurrently(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncRequests()
			c.IncDeliveries()
		}()
	}
	wg.Wait()
	c.IncDispatchFailures()

	snap := c.Snapshot()
	if snap.Requests != 50 || snap.Deliveries != 50 || snap.DispatchFailures != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestHandlerWritesCounters(t *testing.T) {
	c := NewCollector()
	c.IncSubmissions()
	c.IncSubmissions()
	c.IncStageChanges()

	rec := httptest.NewRecorder()
	NewHandler(c).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE hiretrack_applications_submitted_total counter",
		"hiretrack_applications_submitted_total 2",
		"hiretrack_stage_changes_total 1",
		"hiretrack_notification_failures_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
