package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"anayasa/internal/config"
	"anayasa/internal/domain"
	"anayasa/internal/embedding/openai"
	"anayasa/internal/embedding/tfidf"
	"anayasa/internal/generation"
	"anayasa/internal/progress"
	"anayasa/internal/prompt"
	"anayasa/internal/service"
	"anayasa/internal/vectorstore"
	"anayasa/internal/vectorstore/memory"
	"anayasa/internal/vectorstore/qdrant"
)

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newStore(cfg config.VectorStoreConfig) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

func newGenerator(cfg *config.AppConfig) (generation.Generator, error) {
	var observer generation.Observer = generation.NoopObserver{}
	if cfg.Log.LLMCalls {
		observer = generation.NewLogObserver(os.Stderr)
	}
	return generation.NewChatGenerator(generation.ChatConfig{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		TopP:        cfg.Generator.TopP,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	}, observer)
}

// newEngine assembles an unbuilt engine from configuration.
func newEngine(cfg *config.AppConfig) (*service.Engine, error) {
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	st, err := newStore(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	preset, err := prompt.Lookup(cfg.Prompt.Language)
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("generator init failed: %w", err)
	}
	return service.NewEngine(emb, st, prompt.NewAssembler(preset), gen, service.Options{
		TopK:            cfg.Retrieval.TopK,
		LexicalFallback: cfg.Retrieval.LexicalFallback,
		BoundaryPattern: cfg.Corpus.BoundaryPattern,
		SourceTag:       cfg.Corpus.SourceTag,
	}), nil
}

// buildIndex builds the engine's index behind a terminal spinner.
func buildIndex(ctx context.Context, eng *service.Engine, cfg *config.AppConfig) error {
	stop := progress.StartSpinner(os.Stderr, progress.Enabled(), "preparing constitution index")
	err := eng.BuildFromFile(ctx, cfg.Corpus.Path)
	stop()
	return err
}
