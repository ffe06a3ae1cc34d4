package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/helixworks/go-agents/internal/httpc"
)

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("short text", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("expected single chunk, got %v", chunks)
	}
	if chunks := ChunkText("   ", 1000, 200); chunks != nil {
		t.Errorf("expected nil for blank input, got %v", chunks)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("word ", 500) // 2500 chars
	chunks := ChunkText(text, 1000, 200)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 1000 {
			t.Errorf("chunk %d exceeds size: %d", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, chunk)
		}
	}

	// Consecutive chunks share overlapping text.
	first := chunks[0]
	second := chunks[1]
	tail := first[len(first)-50:]
	if !strings.Contains(second, strings.TrimSpace(tail)) {
		t.Error("expected second chunk to overlap the first")
	}
}

func TestChunkTextNoWordSplits(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 200)
	for _, chunk := range ChunkText(text, 100, 20) {
		for _, word := range strings.Fields(chunk) {
			switch word {
			case "alpha", "beta", "gamma":
			default:
				t.Fatalf("word split across chunks: %q", word)
			}
		}
	}
}

func staticTokens() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
}

func TestVertexRetrieve(t *testing.T) {
	var gotPath string
	var gotAuth string
	var gotBody retrieveContextsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"contexts": {"contexts": [
				{"sourceDisplayName": "primer.pdf", "text": "MTHFR reduces folate conversion.", "distance": 0.21},
				{"sourceUri": "gs://bucket/doc2.pdf", "text": "Vitamin D signaling.", "distance": 0.4}
			]}
		}`))
	}))
	defer server.Close()

	retriever, err := NewVertexRetriever(context.Background(), VertexConfig{
		ProjectID:   "demo-project",
		Location:    "us-central1",
		Corpus:      "projects/demo-project/locations/us-central1/ragCorpora/123",
		Endpoint:    server.URL,
		TokenSource: staticTokens(),
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := retriever.Retrieve(context.Background(), "what does MTHFR do?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/projects/demo-project/locations/us-central1:retrieveContexts" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.Query.SimilarityTopK != DefaultTopK {
		t.Errorf("expected top-k %d, got %d", DefaultTopK, gotBody.Query.SimilarityTopK)
	}
	if gotBody.VertexRagStore.VectorDistanceThreshold != DefaultDistanceThreshold {
		t.Errorf("expected threshold %v, got %v",
			DefaultDistanceThreshold, gotBody.VertexRagStore.VectorDistanceThreshold)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Source != "primer.pdf" || docs[0].Distance != 0.21 {
		t.Errorf("unexpected first document: %+v", docs[0])
	}
	if docs[1].Source != "gs://bucket/doc2.pdf" {
		t.Errorf("expected URI fallback for source, got %q", docs[1].Source)
	}
}

func TestVertexRetrieveAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	retriever, err := NewVertexRetriever(context.Background(), VertexConfig{
		ProjectID:   "demo-project",
		Corpus:      "projects/demo-project/locations/us-central1/ragCorpora/123",
		Endpoint:    server.URL,
		TokenSource: staticTokens(),
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), "query")
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Errorf("expected status error, got %v", err)
	}

	var apiErr *httpc.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if !apiErr.IsRetryable() {
		t.Error("expected 429 to be retryable")
	}
}

func TestVertexConfigValidation(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("RAG_CORPUS", "")

	if _, err := NewVertexRetriever(context.Background(), VertexConfig{}); err != ErrMissingProject {
		t.Errorf("expected ErrMissingProject, got %v", err)
	}

	retriever, err := NewVertexRetriever(context.Background(), VertexConfig{
		ProjectID:   "p",
		TokenSource: staticTokens(),
	})
	if err != nil {
		t.Fatalf("corpus should not be required at construction: %v", err)
	}
	if _, err := retriever.Retrieve(context.Background(), "q"); err != ErrMissingCorpus {
		t.Errorf("expected ErrMissingCorpus from Retrieve, got %v", err)
	}
	if _, err := retriever.ListFiles(context.Background()); err != ErrMissingCorpus {
		t.Errorf("expected ErrMissingCorpus from ListFiles, got %v", err)
	}
}

func TestVertexUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "primer.txt")
	if err := os.WriteFile(path, []byte("nutrigenomics primer"), 0644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/ragFiles:upload") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart body: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if meta := r.FormValue("metadata"); !strings.Contains(meta, "primer.txt") {
			t.Errorf("metadata missing display name: %s", meta)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ragFile": map[string]string{
				"name":        "projects/p/locations/us-central1/ragCorpora/1/ragFiles/9",
				"displayName": "primer.txt",
			},
		})
	}))
	defer server.Close()

	retriever, err := NewVertexRetriever(context.Background(), VertexConfig{
		ProjectID:   "p",
		Corpus:      "projects/p/locations/us-central1/ragCorpora/1",
		Endpoint:    server.URL,
		TokenSource: staticTokens(),
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := retriever.UploadFile(context.Background(),
		"projects/p/locations/us-central1/ragCorpora/1", path, "primer.txt", "primer")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if file.DisplayName != "primer.txt" {
		t.Errorf("unexpected uploaded file: %+v", file)
	}
}

func TestVertexCreateOrGetCorpusReusesExisting(t *testing.T) {
	var createCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"ragCorpora": [
				{"name": "projects/p/locations/l/ragCorpora/1", "displayName": "Nutrigenomics_Primer_Corpus"}
			]}`))
		case http.MethodPost:
			createCalled = true
			w.Write([]byte(`{"name": "projects/p/locations/l/ragCorpora/2", "displayName": "other"}`))
		}
	}))
	defer server.Close()

	retriever, err := NewVertexRetriever(context.Background(), VertexConfig{
		ProjectID:   "p",
		Corpus:      "projects/p/locations/l/ragCorpora/1",
		Endpoint:    server.URL,
		TokenSource: staticTokens(),
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	corpus, err := retriever.CreateOrGetCorpus(context.Background(), "Nutrigenomics_Primer_Corpus", "desc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.Name != "projects/p/locations/l/ragCorpora/1" {
		t.Errorf("expected existing corpus, got %s", corpus.Name)
	}
	if createCalled {
		t.Error("expected no create call when corpus exists")
	}
}

func TestLocalRetrieverRequiresPath(t *testing.T) {
	if _, err := NewLocalRetriever(LocalConfig{}); err == nil {
		t.Error("expected error for missing path")
	}
}
