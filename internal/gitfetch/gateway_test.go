package gitfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder captures the waits the gateway would have performed.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

func testGateway(t *testing.T, handler http.Handler) (*Gateway, *sleepRecorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	recorder := &sleepRecorder{}
	return &Gateway{client: client, sleep: recorder.sleep}, recorder
}

func writeRateHeaders(w http.ResponseWriter, remaining int, reset time.Time) {
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

func TestFetchReleasesRestartsAfterRateReject(t *testing.T) {
	var mu sync.Mutex
	var pages []string
	// Reset in the past so the client library lets the restart through.
	reset := time.Now().Add(-2 * time.Second)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		pages = append(pages, r.URL.Query().Get("page"))
		n := len(pages)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case n == 2:
			// Hard rejection mid-pagination
			writeRateHeaders(w, 0, reset)
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
		case r.URL.Query().Get("page") == "2":
			writeRateHeaders(w, 4000, reset)
			fmt.Fprint(w, `[{"name":"v2","tag_name":"v2"}]`)
		default:
			writeRateHeaders(w, 4000, reset)
			w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
			fmt.Fprint(w, `[{"name":"v1","tag_name":"v1"}]`)
		}
	})

	gateway, recorder := testGateway(t, handler)
	releases, err := gateway.FetchReleases(context.Background(), "acme", "core")
	require.NoError(t, err, "a rate rejection must be waited out, not surfaced")

	// The rejection discards the partial page set; the restart walks both
	// pages again, so v1 appears once despite being fetched twice.
	require.Len(t, releases, 2)
	assert.Equal(t, "v1", releases[0].Title)
	assert.Equal(t, "v2", releases[1].Title)

	mu.Lock()
	assert.Equal(t, []string{"1", "2", "1", "2"}, pages, "restart must begin again from page one")
	mu.Unlock()

	require.Len(t, recorder.recorded(), 1, "exactly one wait for the rejection")
}

func TestFetchReleasesWaitsNearQuotaFloor(t *testing.T) {
	reset := time.Now().Add(500 * time.Millisecond)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeRateHeaders(w, 50, reset)
		fmt.Fprint(w, `[{"name":"v1","tag_name":"v1"}]`)
	})

	gateway, recorder := testGateway(t, handler)
	releases, err := gateway.FetchReleases(context.Background(), "acme", "core")
	require.NoError(t, err)
	require.Len(t, releases, 1)

	waits := recorder.recorded()
	require.Len(t, waits, 1, "remaining quota under the floor must trigger a wait")
	assert.Greater(t, waits[0], 5*time.Second, "wait covers the reset plus buffer")
}

func TestFetchReleasesNoWaitAboveQuotaFloor(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeRateHeaders(w, 4000, time.Now().Add(time.Hour))
		fmt.Fprint(w, `[]`)
	})

	gateway, recorder := testGateway(t, handler)
	_, err := gateway.FetchReleases(context.Background(), "acme", "core")
	require.NoError(t, err)
	assert.Empty(t, recorder.recorded())
}
