package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

func sampleChunks() []domain.JobChunk {
	return []domain.JobChunk{
		{DocName: "PALANTIR_JOBS_1", ChunkIndex: 0, JobTitle: "Backend Engineer", Text: "a"},
		{DocName: "PALANTIR_JOBS_1", ChunkIndex: 1, JobTitle: "Backend Engineer", Text: "b"},
	}
}

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/jobs":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/jobs/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), sampleChunks(), vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), sampleChunks(), vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/jobs" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	err := client.IndexChunks(context.Background(), sampleChunks()[:1], [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got == "" || !strings.Contains(got, "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestSearchAppliesDocNameFilterAndMapsPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/jobs/points/search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode search body: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.92,"payload":{"doc_name":"PALANTIR_JOBS_3","job_title":"Forward Deployed Engineer","department":"Engineering","location":"Paris","workplace_type":"Remote","tags":"go,python","chunk_index":2,"text":"chunk text"}},
			{"score":0.81,"payload":{"doc_name":"PALANTIR_JOBS_3","chunk_index":0,"text":"other"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	results, err := client.Search(context.Background(), []float32{0.1}, 3, domain.SearchFilter{DocName: "PALANTIR_JOBS_3"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("expected filter in search body, got %v", captured)
	}
	raw, _ := json.Marshal(filter)
	if !strings.Contains(string(raw), `"doc_name"`) || !strings.Contains(string(raw), "PALANTIR_JOBS_3") {
		t.Fatalf("unexpected filter: %s", raw)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.DocName != "PALANTIR_JOBS_3" || first.JobTitle != "Forward Deployed Engineer" || first.ChunkIndex != 2 || first.Score != 0.92 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not in descending score order")
	}
}

func TestSearchWithoutFilterOmitsFilterClause(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	if _, err := client.Search(context.Background(), []float32{0.1}, 3, domain.SearchFilter{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("expected no filter clause, got %v", captured["filter"])
	}
}

func TestResetDropsCollectionAndForcesReensure(t *testing.T) {
	var ensureCalls, deleteCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/collections/jobs":
			atomic.AddInt32(&deleteCalls, 1)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/jobs":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/jobs/points":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	vectors := [][]float32{{0.1, 0.2}}

	if err := client.IndexChunks(context.Background(), sampleChunks()[:1], vectors); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), sampleChunks()[:1], vectors); err != nil {
		t.Fatalf("IndexChunks() after reset error = %v", err)
	}

	if got := atomic.LoadInt32(&deleteCalls); got != 1 {
		t.Fatalf("expected 1 delete call, got %d", got)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 2 {
		t.Fatalf("expected collection re-ensured after reset, got %d ensure calls", got)
	}
}

func TestResetToleratesMissingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "jobs")
	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
}
