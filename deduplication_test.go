package basecamp

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestDeduplicationMergesConcurrentGets(t *testing.T) {
	const callers = 5

	var hits int64
	arrived := make(chan struct{}, callers)
	release := make(chan struct{})

	mc := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client := newTestClient(t, testAccount(), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`{"id":1,"tags":["a"]}`))
	}, WithDeduplication(), WithMetricsCollector(mc))

	fp := CreateHash(http.MethodGet, "projects/1.json", nil)
	results := make([]*Result, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	get := func(i int) {
		defer wg.Done()
		results[i], errs[i] = client.Get(context.Background(), "projects/1.json")
	}

	wg.Add(1)
	go get(0)
	<-arrived

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go get(i)
	}
	waitFor(t, func() bool { return client.dedup.Joined(fp) == callers-1 })

	close(release)
	wg.Wait()

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("Expected 1 request to reach the server, got %d", got)
	}

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}

	results[0].Object()["tags"].([]any)[0] = "mutated"
	for i := 1; i < callers; i++ {
		if results[i] == results[0] {
			t.Errorf("caller %d shares the result pointer", i)
		}
		if results[i].Object()["tags"].([]any)[0] != "a" {
			t.Errorf("caller %d observed another caller's mutation", i)
		}
	}

	endpoint := getEndpointFromRequest(&http.Request{URL: mustParseURL(t, client.resolve("projects/1.json"))})
	if got := testutil.ToFloat64(mc.deduplicationHits.WithLabelValues("GET", endpoint)); got != callers-1 {
		t.Errorf("Expected %d deduplication hits, got %v", callers-1, got)
	}
}

// newBlockingClient answers only after release is called and signals every
// arrival on arrived.
func newBlockingClient(t *testing.T, hits *int64, options ...Option) (client *Client, arrived chan struct{}, release func()) {
	t.Helper()

	arrived = make(chan struct{}, 10)
	unblock := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(unblock) }) }

	client = newTestClient(t, testAccount(), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		arrived <- struct{}{}
		select {
		case <-unblock:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`{"id":1}`))
	}, append([]Option{WithDeduplication()}, options...)...)
	t.Cleanup(release)

	return client, arrived, release
}

func TestDeduplicationWaiterHonorsOwnTimeout(t *testing.T) {
	var hits int64
	client, arrived, release := newBlockingClient(t, &hits)
	fp := CreateHash(http.MethodGet, "projects/1.json", nil)

	ownerDone := make(chan error, 1)
	go func() {
		_, err := client.Get(context.Background(), "projects/1.json", Timeout(5*time.Second))
		ownerDone <- err
	}()
	<-arrived

	start := time.Now()
	_, err := client.Get(context.Background(), "projects/1.json", Timeout(50*time.Millisecond))
	if !IsTransport(err) {
		t.Fatalf("Expected transport error for the waiter, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded cause, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Waiter blocked for %v past its timeout", elapsed)
	}
	if client.dedup.Joined(fp) != 1 {
		t.Errorf("Expected the waiter to have joined the in-flight call")
	}

	release()
	if err := <-ownerDone; err != nil {
		t.Errorf("Owner failed: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("Expected 1 request to reach the server, got %d", got)
	}
}

func TestDeduplicationOwnerTimeoutDoesNotFailWaiters(t *testing.T) {
	var hits int64
	client, arrived, release := newBlockingClient(t, &hits)
	fp := CreateHash(http.MethodGet, "projects/1.json", nil)

	ownerDone := make(chan error, 1)
	go func() {
		_, err := client.Get(context.Background(), "projects/1.json", Timeout(300*time.Millisecond))
		ownerDone <- err
	}()
	<-arrived

	type outcome struct {
		res *Result
		err error
	}
	waiterDone := make(chan outcome, 1)
	go func() {
		res, err := client.Get(context.Background(), "projects/1.json", Timeout(5*time.Second))
		waiterDone <- outcome{res, err}
	}()
	waitFor(t, func() bool { return client.dedup.Joined(fp) == 1 })

	if err := <-ownerDone; !IsTransport(err) {
		t.Fatalf("Expected the owner to time out, got %v", err)
	}

	release()
	got := <-waiterDone
	if got.err != nil {
		t.Fatalf("Waiter failed after the owner gave up: %v", got.err)
	}
	if got.res.Object()["id"] != float64(1) {
		t.Errorf("Unexpected body %v", got.res.Body)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Errorf("Expected 1 request to reach the server, got %d", n)
	}
}

func TestDeduplicationSkipsWrites(t *testing.T) {
	var hits int64
	client := newTestClient(t, testAccount(), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusCreated)
	}, WithDeduplication())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Post(context.Background(), "projects/1/messages.json", Params{"subject": "x"}); err != nil {
				t.Errorf(expectedNoErrorMsg, err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&hits); got != 3 {
		t.Errorf("Expected every POST to reach the server, got %d", got)
	}
}

func TestDeduplicationSequentialCallsRunAgain(t *testing.T) {
	var hits int64
	client := newTestClient(t, testAccount(), func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}, WithDeduplication())

	for i := 0; i < 2; i++ {
		if _, err := client.Get(context.Background(), "projects.json"); err != nil {
			t.Fatalf(expectedNoErrorMsg, err)
		}
	}

	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("Expected 2 requests, got %d", got)
	}
}
