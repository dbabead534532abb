package nvdapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmeakapa/secref/pkg/provider"
)

type fakeAPI struct {
	total int

	// failures maps startIndex to the number of times that request should fail before succeeding
	failures map[int]int

	// emptyFrom, when > 0, makes every page at or beyond this startIndex return zero products
	emptyFrom int

	requests []string
	apiKeys  []string
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.RawQuery)
		f.apiKeys = append(f.apiKeys, r.Header.Get("apiKey"))

		perPage, _ := strconv.Atoi(r.URL.Query().Get("resultsPerPage"))
		start, _ := strconv.Atoi(r.URL.Query().Get("startIndex"))

		if remaining := f.failures[start]; remaining > 0 {
			f.failures[start] = remaining - 1
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		count := f.total - start
		if count > perPage {
			count = perPage
		}
		if count < 0 || (f.emptyFrom > 0 && start >= f.emptyFrom) {
			count = 0
		}

		products := ""
		for i := 0; i < count; i++ {
			if i > 0 {
				products += ","
			}
			products += fmt.Sprintf(`{"cpe": {"cpeName": "cpe:2.3:a:vendor:product%d:*:*:*:*:*:*:*:*"}}`, start+i)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"resultsPerPage": %d, "startIndex": %d, "totalResults": %d, "format": "NVD_CPE", "version": "2.0", "timestamp": "2024-01-01T00:00:00.000", "products": [%s]}`, perPage, start, f.total, products)
	}
}

func testClient(url string, pageSize, maxPages int) *Client {
	return NewClient(Config{
		URL:        url,
		PageSize:   pageSize,
		Politeness: 0,
		Retry:      provider.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		MaxPages:   maxPages,
	})
}

func TestClient_Probe(t *testing.T) {
	api := &fakeAPI{total: 25}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	plan, err := testClient(server.URL, 10, 0).Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 25, plan.TotalResults)
	assert.Equal(t, 3, plan.Pages)
	assert.Equal(t, "NVD_CPE", plan.Format)
	assert.Equal(t, "2.0", plan.Version)
	require.Len(t, api.requests, 1)
	assert.Equal(t, "resultsPerPage=1&startIndex=0", api.requests[0])
}

func TestClient_Probe_zeroTotalAborts(t *testing.T) {
	api := &fakeAPI{total: 0}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	_, err := testClient(server.URL, 10, 0).Probe(context.Background())
	require.ErrorContains(t, err, "usable total item count")
}

func TestClient_Probe_testModeCapsPlan(t *testing.T) {
	api := &fakeAPI{total: 1000}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	plan, err := testClient(server.URL, 10, 5).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, plan.Pages)
}

func TestClient_FetchPages(t *testing.T) {
	api := &fakeAPI{total: 25}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := testClient(server.URL, 10, 0)
	plan, err := client.Probe(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, client.FetchPages(context.Background(), plan, dir))

	for page := 0; page < plan.Pages; page++ {
		assert.FileExists(t, PagePath(dir, page))
	}
	assert.Equal(t, plan.Pages, NewCheckpoint(dir).Load())
}

func TestClient_FetchPages_retriesTransientFailures(t *testing.T) {
	api := &fakeAPI{total: 20, failures: map[int]int{10: 2}}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := testClient(server.URL, 10, 0)
	plan := Plan{TotalResults: 20, PageSize: 10, Pages: 2}

	dir := t.TempDir()
	require.NoError(t, client.FetchPages(context.Background(), plan, dir))
	assert.FileExists(t, PagePath(dir, 1))
}

func TestClient_FetchPages_exhaustionIsFatalAndResumable(t *testing.T) {
	api := &fakeAPI{total: 30, failures: map[int]int{20: 100}}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := testClient(server.URL, 10, 0)
	plan := Plan{TotalResults: 30, PageSize: 10, Pages: 3}

	dir := t.TempDir()
	err := client.FetchPages(context.Background(), plan, dir)
	require.ErrorContains(t, err, "failed after 3 attempts")

	// pages before the failure are durable and vouched for by the checkpoint
	assert.FileExists(t, PagePath(dir, 0))
	assert.FileExists(t, PagePath(dir, 1))
	assert.NoFileExists(t, PagePath(dir, 2))
	assert.Equal(t, 2, NewCheckpoint(dir).Load())

	// a rerun resumes at the failed page without refetching completed ones
	api.failures = map[int]int{}
	requestsBefore := len(api.requests)
	require.NoError(t, client.FetchPages(context.Background(), plan, dir))
	assert.Equal(t, requestsBefore+1, len(api.requests), "only the missing page is fetched on resume")
	assert.FileExists(t, PagePath(dir, 2))
}

func TestClient_FetchPages_emptyPageIsHardFailure(t *testing.T) {
	api := &fakeAPI{total: 30, emptyFrom: 10}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := testClient(server.URL, 10, 0)
	plan := Plan{TotalResults: 30, PageSize: 10, Pages: 3}

	err := client.FetchPages(context.Background(), plan, t.TempDir())
	require.ErrorIs(t, err, provider.ErrEmptyPage)
}

func TestClient_FetchPages_checkpointBeyondPlanRestarts(t *testing.T) {
	api := &fakeAPI{total: 10}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := testClient(server.URL, 10, 0)
	plan := Plan{TotalResults: 10, PageSize: 10, Pages: 1}

	dir := t.TempDir()
	require.NoError(t, NewCheckpoint(dir).Save(9))

	require.NoError(t, client.FetchPages(context.Background(), plan, dir))
	assert.FileExists(t, PagePath(dir, 0))
	assert.Equal(t, 1, NewCheckpoint(dir).Load())
}

func TestClient_APIKeyHeader(t *testing.T) {
	api := &fakeAPI{total: 5}
	server := httptest.NewServer(api.handler())
	defer server.Close()

	client := NewClient(Config{
		URL:      server.URL,
		PageSize: 10,
		APIKey:   "secret-key",
		Retry:    provider.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond},
	})

	_, err := client.Probe(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, api.apiKeys)
	assert.Equal(t, "secret-key", api.apiKeys[0])
}

func TestPagePaths(t *testing.T) {
	paths := PagePaths("scratch", 3)
	require.Len(t, paths, 3)
	assert.Equal(t, PagePath("scratch", 0), paths[0])
	assert.Equal(t, PagePath("scratch", 2), paths[2])

	assert.Empty(t, PagePaths("scratch", 0))
}
