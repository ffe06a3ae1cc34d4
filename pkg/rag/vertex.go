package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/helixworks/go-agents/internal/httpc"
	"github.com/helixworks/go-agents/internal/log"
)

// VertexConfig configures the Vertex AI RAG retriever.
type VertexConfig struct {
	// ProjectID is the GCP project. Falls back to GOOGLE_CLOUD_PROJECT.
	ProjectID string

	// Location is the Vertex region. Falls back to GOOGLE_CLOUD_LOCATION,
	// then us-central1.
	Location string

	// Corpus is the full RAG corpus resource name. Falls back to RAG_CORPUS.
	Corpus string

	// TopK and DistanceThreshold tune retrieval. Zero values select the
	// package defaults.
	TopK              int
	DistanceThreshold float64

	// Endpoint overrides the API base URL, mainly for tests.
	Endpoint string

	// TokenSource overrides the default Google credentials, mainly
	// for tests.
	TokenSource oauth2.TokenSource

	HTTPClient *http.Client
}

// VertexRetriever retrieves evidence from a Vertex AI RAG corpus.
type VertexRetriever struct {
	projectID string
	location  string
	corpus    string
	topK      int
	threshold float64
	endpoint  string
	tokens    oauth2.TokenSource
	client    *http.Client
}

// NewVertexRetriever creates a retriever using Application Default
// Credentials unless a token source is supplied.
func NewVertexRetriever(ctx context.Context, cfg VertexConfig) (*VertexRetriever, error) {
	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if cfg.ProjectID == "" {
		return nil, ErrMissingProject
	}
	if cfg.Location == "" {
		cfg.Location = os.Getenv("GOOGLE_CLOUD_LOCATION")
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Corpus == "" {
		cfg.Corpus = os.Getenv("RAG_CORPUS")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = DefaultDistanceThreshold
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1beta1", cfg.Location)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = httpc.Client
	}
	if cfg.TokenSource == nil {
		ts, err := google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("rag: failed to resolve credentials: %w", err)
		}
		cfg.TokenSource = ts
	}

	return &VertexRetriever{
		projectID: cfg.ProjectID,
		location:  cfg.Location,
		corpus:    cfg.Corpus,
		topK:      cfg.TopK,
		threshold: cfg.DistanceThreshold,
		endpoint:  cfg.Endpoint,
		tokens:    cfg.TokenSource,
		client:    cfg.HTTPClient,
	}, nil
}

type retrieveContextsRequest struct {
	VertexRagStore vertexRagStore       `json:"vertex_rag_store"`
	Query          retrieveContextQuery `json:"query"`
}

type vertexRagStore struct {
	RagResources            []ragResource `json:"rag_resources"`
	VectorDistanceThreshold float64       `json:"vector_distance_threshold"`
}

type ragResource struct {
	RagCorpus string `json:"rag_corpus"`
}

type retrieveContextQuery struct {
	Text           string `json:"text"`
	SimilarityTopK int    `json:"similarity_top_k"`
}

type retrieveContextsResponse struct {
	Contexts struct {
		Contexts []struct {
			SourceURI         string  `json:"sourceUri"`
			SourceDisplayName string  `json:"sourceDisplayName"`
			Text              string  `json:"text"`
			Distance          float64 `json:"distance"`
		} `json:"contexts"`
	} `json:"contexts"`
}

// Retrieve queries the corpus and returns the matching evidence chunks.
func (v *VertexRetriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	if v.corpus == "" {
		return nil, ErrMissingCorpus
	}
	payload := retrieveContextsRequest{
		VertexRagStore: vertexRagStore{
			RagResources:            []ragResource{{RagCorpus: v.corpus}},
			VectorDistanceThreshold: v.threshold,
		},
		Query: retrieveContextQuery{
			Text:           query,
			SimilarityTopK: v.topK,
		},
	}

	url := fmt.Sprintf("%s/projects/%s/locations/%s:retrieveContexts",
		v.endpoint, v.projectID, v.location)

	var resp retrieveContextsResponse
	if err := v.post(ctx, url, payload, &resp); err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(resp.Contexts.Contexts))
	for _, c := range resp.Contexts.Contexts {
		source := c.SourceDisplayName
		if source == "" {
			source = c.SourceURI
		}
		documents = append(documents, Document{
			Source:   source,
			Content:  c.Text,
			Distance: c.Distance,
		})
	}
	log.Debug("retrieved contexts", "query_len", len(query), "documents", len(documents))
	return documents, nil
}

// Corpus is one RAG corpus resource.
type Corpus struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type listCorporaResponse struct {
	RagCorpora []Corpus `json:"ragCorpora"`
}

// ListCorpora lists the RAG corpora in the project location.
func (v *VertexRetriever) ListCorpora(ctx context.Context) ([]Corpus, error) {
	url := fmt.Sprintf("%s/projects/%s/locations/%s/ragCorpora",
		v.endpoint, v.projectID, v.location)

	var resp listCorporaResponse
	if err := v.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.RagCorpora, nil
}

// CreateOrGetCorpus reuses a corpus with the given display name or
// creates a new one with text-embedding-004 embeddings.
func (v *VertexRetriever) CreateOrGetCorpus(ctx context.Context, displayName, description string) (*Corpus, error) {
	existing, err := v.ListCorpora(ctx)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].DisplayName == displayName {
			log.Info("reusing existing corpus", "name", existing[i].Name)
			return &existing[i], nil
		}
	}

	payload := map[string]any{
		"display_name": displayName,
		"description":  description,
		"rag_embedding_model_config": map[string]any{
			"vertex_prediction_endpoint": map[string]any{
				"endpoint": fmt.Sprintf(
					"projects/%s/locations/%s/publishers/google/models/text-embedding-004",
					v.projectID, v.location),
			},
		},
	}

	url := fmt.Sprintf("%s/projects/%s/locations/%s/ragCorpora",
		v.endpoint, v.projectID, v.location)

	var created Corpus
	if err := v.post(ctx, url, payload, &created); err != nil {
		return nil, err
	}
	log.Info("created corpus", "display_name", displayName)
	return &created, nil
}

// CorpusFile is one file uploaded to a corpus.
type CorpusFile struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type listFilesResponse struct {
	RagFiles []CorpusFile `json:"ragFiles"`
}

// UploadFile uploads a local file to a corpus for indexing.
func (v *VertexRetriever) UploadFile(ctx context.Context, corpusName, path, displayName, description string) (*CorpusFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rag: failed to open %s: %w", path, err)
	}
	defer file.Close()

	meta, err := json.Marshal(map[string]any{
		"rag_file": map[string]any{
			"display_name": displayName,
			"description":  description,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rag: failed to marshal metadata: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	metaPart, err := writer.CreateFormField("metadata")
	if err != nil {
		return nil, fmt.Errorf("rag: failed to build upload request: %w", err)
	}
	if _, err := metaPart.Write(meta); err != nil {
		return nil, fmt.Errorf("rag: failed to build upload request: %w", err)
	}
	filePart, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("rag: failed to build upload request: %w", err)
	}
	if _, err := io.Copy(filePart, file); err != nil {
		return nil, fmt.Errorf("rag: failed to read %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("rag: failed to build upload request: %w", err)
	}

	// Media uploads go through the /upload prefix.
	base := strings.Replace(v.endpoint, "/v1beta1", "/upload/v1beta1", 1)
	url := fmt.Sprintf("%s/%s/ragFiles:upload", base, corpusName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("rag: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Goog-Upload-Protocol", "multipart")

	var resp struct {
		RagFile CorpusFile `json:"ragFile"`
	}
	if err := v.do(req, &resp); err != nil {
		return nil, err
	}
	log.Info("uploaded file to corpus", "file", displayName, "name", resp.RagFile.Name)
	return &resp.RagFile, nil
}

// DownloadFile fetches url and writes the response body to dest.
func DownloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("rag: failed to create request: %w", err)
	}
	resp, err := httpc.Client.Do(req)
	if err != nil {
		return fmt.Errorf("rag: download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rag: %w", httpc.NewAPIError(resp.StatusCode, "", "download failed"))
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("rag: failed to create %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("rag: failed to write %s: %w", dest, err)
	}
	return nil
}

// ListFiles lists the files in the retriever's corpus.
func (v *VertexRetriever) ListFiles(ctx context.Context) ([]CorpusFile, error) {
	if v.corpus == "" {
		return nil, ErrMissingCorpus
	}
	url := fmt.Sprintf("%s/%s/ragFiles", v.endpoint, v.corpus)

	var resp listFilesResponse
	if err := v.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.RagFiles, nil
}

func (v *VertexRetriever) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rag: failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rag: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return v.do(req, out)
}

func (v *VertexRetriever) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("rag: failed to create request: %w", err)
	}
	return v.do(req, out)
}

func (v *VertexRetriever) do(req *http.Request, out any) error {
	token, err := v.tokens.Token()
	if err != nil {
		return fmt.Errorf("rag: failed to obtain access token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("rag: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rag: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rag: %w", httpc.NewAPIError(resp.StatusCode, "", truncate(string(body), 200)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("rag: failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
