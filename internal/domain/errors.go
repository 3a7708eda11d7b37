package domain

import "errors"

var (
	// ErrIndexNotLoaded signals that the service is running without a usable
	// index/metadata pair. Distinct from an empty result set.
	ErrIndexNotLoaded = errors.New("index not loaded")
	// ErrSlotOutOfRange signals a catalog slot lookup outside [0, len).
	ErrSlotOutOfRange = errors.New("slot out of range")
	// ErrInvalidTopK signals a non-positive top_k.
	ErrInvalidTopK = errors.New("top_k must be positive")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrNotAnImage signals an upload that does not decode as an image.
	ErrNotAnImage = errors.New("payload is not a decodable image")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a summarizer failure. Retrieval results are
	// still returned; only the recommendation text is dropped.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrImageFileMissing signals that a catalog slot points at a file that no
	// longer exists on disk.
	ErrImageFileMissing = errors.New("image file missing")
)
