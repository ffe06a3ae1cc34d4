// Package rag provides retrieval-augmented grounding for the
// nutrigenomics assistant, backed by Vertex AI RAG or a local
// embedded vector store.
package rag

import (
	"context"
	"errors"
)

// Default retrieval tuning.
const (
	DefaultTopK              = 12
	DefaultDistanceThreshold = 0.55
)

var (
	// ErrMissingCorpus is returned when no corpus resource is configured.
	ErrMissingCorpus = errors.New("rag: corpus resource name is required")

	// ErrMissingProject is returned when the GCP project is not configured.
	ErrMissingProject = errors.New("rag: google cloud project is required")
)

// Document is one retrieved evidence chunk.
type Document struct {
	// Source identifies the originating document (URI or display name).
	Source string `json:"source"`

	// Content is the retrieved text chunk.
	Content string `json:"content"`

	// Distance is the vector distance from the query. Lower is closer.
	Distance float64 `json:"distance"`
}

// Retriever finds evidence chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}
