package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/helixworks/go-agents/internal/log"
)

// LocalConfig configures the embedded vector store retriever.
type LocalConfig struct {
	// Path is the on-disk location of the vector store.
	Path string

	// Collection names the document collection. Defaults to "nutrigenomics".
	Collection string

	// OpenAIAPIKey is used for embeddings. Falls back to OPENAI_API_KEY.
	OpenAIAPIKey string

	// TopK tunes retrieval. Zero selects the package default.
	TopK int

	// Embedder overrides the embedding function, mainly for tests.
	Embedder chromem.EmbeddingFunc
}

// LocalRetriever is a self-contained alternative to the Vertex corpus:
// documents are chunked, embedded and stored on disk.
type LocalRetriever struct {
	db         *chromem.DB
	collection *chromem.Collection
	topK       int
}

// NewLocalRetriever opens or creates the vector store at cfg.Path.
func NewLocalRetriever(cfg LocalConfig) (*LocalRetriever, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("rag: vector store path is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "nutrigenomics"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	embedder := cfg.Embedder
	if embedder == nil {
		apiKey := cfg.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("rag: OPENAI_API_KEY is required for embeddings")
		}
		embedder = chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small)
	}

	db, err := chromem.NewPersistentDB(cfg.Path, false)
	if err != nil {
		return nil, fmt.Errorf("rag: failed to open vector store: %w", err)
	}

	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embedder)
	if err != nil {
		return nil, fmt.Errorf("rag: failed to open collection: %w", err)
	}

	return &LocalRetriever{
		db:         db,
		collection: collection,
		topK:       cfg.TopK,
	}, nil
}

// Count returns the number of stored chunks.
func (l *LocalRetriever) Count() int {
	return l.collection.Count()
}

// AddDocument chunks and stores one document under the given source name.
func (l *LocalRetriever) AddDocument(ctx context.Context, source, content string) (int, error) {
	chunks := ChunkText(content, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("%s#%d", source, i),
			Content:  chunk,
			Metadata: map[string]string{"source": source},
		})
	}
	if err := l.collection.AddDocuments(ctx, docs, 2); err != nil {
		return 0, fmt.Errorf("rag: failed to store document %s: %w", source, err)
	}
	return len(chunks), nil
}

// IngestDir stores every .txt and .md file under dir.
func (l *LocalRetriever) IngestDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("rag: failed to read directory: %w", err)
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return total, fmt.Errorf("rag: failed to read %s: %w", entry.Name(), err)
		}
		count, err := l.AddDocument(ctx, entry.Name(), string(data))
		if err != nil {
			return total, err
		}
		total += count
		log.Info("ingested document", "file", entry.Name(), "chunks", count)
	}
	return total, nil
}

// Retrieve finds the stored chunks most similar to the query.
func (l *LocalRetriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	count := l.collection.Count()
	if count == 0 {
		return nil, nil
	}
	topK := l.topK
	if topK > count {
		topK = count
	}

	results, err := l.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("rag: query failed: %w", err)
	}

	documents := make([]Document, 0, len(results))
	for _, res := range results {
		source := res.Metadata["source"]
		if source == "" {
			source = res.ID
		}
		documents = append(documents, Document{
			Source:   source,
			Content:  res.Content,
			Distance: 1 - float64(res.Similarity),
		})
	}
	return documents, nil
}
