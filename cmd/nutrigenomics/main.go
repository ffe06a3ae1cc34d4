// Nutrigenomics assistant: answer genomics and longevity questions
// grounded on a RAG corpus, with Vertex AI or a local vector store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixworks/go-agents/internal/env"
	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/assistant"
	"github.com/helixworks/go-agents/pkg/rag"
)

var (
	flagBackend   string
	flagLLM       string
	flagStorePath string
	flagPrimerURL string
	flagDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "nutrigenomics",
	Short: "Nutrigenomics and longevity assistant grounded on a RAG corpus",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if flagDebug {
			level = "debug"
		}
		log.Init(level)
		env.Load()
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAssistant(cmd.Context())
		if err != nil {
			return err
		}

		answer, err := a.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(answer.Text)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question and answer session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildAssistant(cmd.Context())
		if err != nil {
			return err
		}
		session := a.NewSession()
		fmt.Printf("Session %s. Type a question, or 'exit' to quit.\n", session.ID)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}
			if question == "exit" || question == "quit" {
				break
			}

			answer, err := session.Ask(cmd.Context(), question)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			fmt.Println()
			fmt.Println(answer.Text)
			fmt.Println()
		}
		return scanner.Err()
	},
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the Vertex AI RAG corpus",
}

var corpusPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Create the corpus and seed it with the primer document",
	RunE: func(cmd *cobra.Command, args []string) error {
		retriever, err := rag.NewVertexRetriever(cmd.Context(), rag.VertexConfig{})
		if err != nil {
			return err
		}

		corpus, err := retriever.CreateOrGetCorpus(cmd.Context(),
			"Nutrigenomics_Primer_Corpus",
			"Reference material covering nutrigenomics principles and lifestyle interventions.")
		if err != nil {
			return err
		}
		fmt.Println("Corpus resource:", corpus.Name)
		fmt.Println("Set RAG_CORPUS to this value in your .env file.")

		if flagPrimerURL != "" {
			path := filepath.Join(os.TempDir(), "nutrigenomics_primer.pdf")
			fmt.Println("Downloading primer from", flagPrimerURL)
			if err := rag.DownloadFile(cmd.Context(), flagPrimerURL, path); err != nil {
				return err
			}
			defer os.Remove(path)

			uploaded, err := retriever.UploadFile(cmd.Context(), corpus.Name, path,
				"nutrigenomics_primer.pdf",
				"Review article on nutrigenomics and personalised nutrition.")
			if err != nil {
				return err
			}
			fmt.Println("Uploaded:", uploaded.Name)
		}
		return nil
	},
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files in the configured corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		retriever, err := rag.NewVertexRetriever(cmd.Context(), rag.VertexConfig{})
		if err != nil {
			return err
		}

		files, err := retriever.ListFiles(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Total files in corpus: %d\n", len(files))
		for _, file := range files {
			fmt.Printf("File: %s - %s\n", file.DisplayName, file.Name)
		}
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Chunk and embed documents into the local vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		retriever, err := rag.NewLocalRetriever(rag.LocalConfig{
			Path:         flagStorePath,
			OpenAIAPIKey: env.Require("OPENAI_API_KEY"),
		})
		if err != nil {
			return err
		}

		count, err := retriever.IngestDir(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d chunks. Store now holds %d chunks.\n", count, retriever.Count())
		return nil
	},
}

func buildAssistant(ctx context.Context) (*assistant.Assistant, error) {
	var retriever rag.Retriever
	var err error
	switch flagBackend {
	case "vertex":
		retriever, err = rag.NewVertexRetriever(ctx, rag.VertexConfig{})
	case "local":
		retriever, err = rag.NewLocalRetriever(rag.LocalConfig{Path: flagStorePath})
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q (use vertex or local)", flagBackend)
	}
	if err != nil {
		return nil, err
	}

	var llm assistant.LLM
	switch flagLLM {
	case "gemini":
		llm, err = assistant.NewGeminiLLM(assistant.GeminiConfig{})
	case "openai":
		llm, err = assistant.NewOpenAILLM(assistant.OpenAIConfig{})
	default:
		return nil, fmt.Errorf("unknown LLM backend %q (use gemini or openai)", flagLLM)
	}
	if err != nil {
		return nil, err
	}

	return assistant.New(retriever, llm), nil
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "vertex",
		"Retrieval backend: vertex or local")
	rootCmd.PersistentFlags().StringVar(&flagLLM, "llm", "gemini",
		"LLM backend: gemini or openai")
	rootCmd.PersistentFlags().StringVar(&flagStorePath, "store",
		env.Get("VECTOR_STORE_PATH", "data/vector_store"),
		"Local vector store path for the local backend")

	corpusPrepareCmd.Flags().StringVar(&flagPrimerURL, "primer-url",
		"https://www.ncbi.nlm.nih.gov/pmc/articles/PMC3257702/pdf/nihms353847.pdf",
		"Primer document to download and upload to the corpus (empty skips seeding)")

	corpusCmd.AddCommand(corpusPrepareCmd, corpusListCmd)
	rootCmd.AddCommand(askCmd, chatCmd, corpusCmd, ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
