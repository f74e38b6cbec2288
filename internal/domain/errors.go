package domain

import "errors"

var (
	// ErrCorpusUnavailable indicates the corpus file is missing or unreadable.
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrEmptyCorpus indicates segmentation produced no valid articles.
	ErrEmptyCorpus = errors.New("corpus contains no articles")

	// ErrIndexBuild indicates the index could not be built.
	ErrIndexBuild = errors.New("index build failed")

	// ErrRetrieval indicates embedding or search failed for a question.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generator call failed for a question.
	ErrGeneration = errors.New("generation failed")

	// ErrDimensionMismatch indicates vectors of different lengths were mixed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotReady indicates a question arrived before the index was built.
	ErrNotReady = errors.New("index not ready")
)
