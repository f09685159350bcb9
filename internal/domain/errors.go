package domain

import "errors"

var (
	// ErrVectorStoreUnavailable signals a vector store failure.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrPrefixNotIndexed signals a recommend anchor missing from the prefix collection.
	ErrPrefixNotIndexed = errors.New("prefix not indexed")
)
