// Package assistant implements the nutrigenomics question answering
// agent: retrieve evidence from the corpus, ground an LLM prompt on it
// and return an answer with consolidated citations.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/rag"
)

// systemInstruction is the root prompt for the assistant.
const systemInstruction = `You are a nutrigenomics and longevity planning assistant with access to a
curated corpus containing genomic variant annotations, nutrient metabolism
research, evidence-based supplement protocols, exercise programming
guidance, and emerging longevity therapies.

Responsibilities:
- Interpret the user's genomics-related questions, including variant
  identifiers, risk alleles, and phenotype descriptions.
- Combine insights from the corpus to deliver personalised lifestyle
  guidance across nutrition, supplementation, movement, recovery, and
  longevity-focused interventions.
- Highlight mechanistic rationales (e.g., metabolic pathways, affected
  biomarkers) whenever the corpus provides them.
- Clearly label advice tiers such as "Lifestyle", "Diet", "Supplement",
  "Exercise", and "Longevity Therapy" so the user can differentiate the
  categories.
- Always encourage consultation with qualified healthcare professionals
  before acting on genetic or medical information.

Safety and quality:
- Do not invent studies or protocols. If the corpus lacks information,
  state this clearly and offer safe, general guidance.
- Flag safety considerations such as contraindications, interactions,
  dosage limits, or populations that should avoid a recommendation when
  the corpus mentions them.
- If no sources are retrieved, respond transparently that evidence was
  not found and avoid giving unsupported medical advice.`

// LLM generates a completion from a system instruction and a user prompt.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Citation is one referenced source document.
type Citation struct {
	Number int    `json:"number"`
	Source string `json:"source"`
}

// Answer is the assistant's response to one question.
type Answer struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`

	// Grounded reports whether corpus evidence backed the answer.
	Grounded bool `json:"grounded"`
}

// Assistant answers questions grounded on retrieved evidence.
type Assistant struct {
	retriever rag.Retriever
	llm       LLM
}

// New creates an assistant from a retriever and an LLM backend.
func New(retriever rag.Retriever, llm LLM) *Assistant {
	return &Assistant{retriever: retriever, llm: llm}
}

// Session is one conversation with retained history.
type Session struct {
	ID        string
	assistant *Assistant
	history   []string
}

// NewSession starts a conversation.
func (a *Assistant) NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		assistant: a,
	}
}

// Ask answers a question inside the session.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	answer, err := s.assistant.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	s.history = append(s.history, "Q: "+question, "A: "+answer.Text)
	return answer, nil
}

// History returns the alternating question and answer lines so far.
func (s *Session) History() []string {
	return s.history
}

// Ask retrieves evidence for the question and generates a cited answer.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("assistant: question is empty")
	}

	documents, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		log.Warn("retrieval failed, answering without evidence", "error", err)
		documents = nil
	}

	prompt, citations := buildPrompt(question, documents)
	text, err := a.llm.Complete(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("assistant: completion failed: %w", err)
	}

	answer := &Answer{
		Text:      strings.TrimSpace(text),
		Citations: citations,
		Grounded:  len(citations) > 0,
	}
	if len(citations) > 0 {
		answer.Text += "\n\n" + formatCitations(citations)
	}
	return answer, nil
}

// buildPrompt assembles the grounded user prompt and the consolidated
// citation list. Chunks from the same document share one citation number.
func buildPrompt(question string, documents []rag.Document) (string, []Citation) {
	if len(documents) == 0 {
		prompt := "No corpus evidence was retrieved for this question. " +
			"State transparently that evidence was not found and offer only safe, " +
			"general guidance.\n\nQuestion: " + question
		return prompt, nil
	}

	var citations []Citation
	numbers := make(map[string]int)

	var b strings.Builder
	b.WriteString("Relevant evidence from the corpus:\n\n")
	for _, doc := range documents {
		number, ok := numbers[doc.Source]
		if !ok {
			number = len(citations) + 1
			numbers[doc.Source] = number
			citations = append(citations, Citation{Number: number, Source: doc.Source})
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", number, doc.Source, doc.Content)
	}
	b.WriteString("Use the evidence above to answer the question. ")
	b.WriteString("Reference sources by their bracketed numbers.\n\n")
	b.WriteString("Question: " + question)
	return b.String(), citations
}

func formatCitations(citations []Citation) string {
	var b strings.Builder
	b.WriteString("Citations:")
	for _, c := range citations {
		fmt.Fprintf(&b, "\n[%d] %s", c.Number, c.Source)
	}
	return b.String()
}
