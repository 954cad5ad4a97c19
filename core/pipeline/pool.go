package pipeline

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/siherrmann/lorekeeper/helper"
)

// pooledExtractor pairs an extraction function with the close function of
// its hugot session
type pooledExtractor struct {
	extract SpanExtractFunc
	close   func() error
}

// ExtractorPool caches loaded NER extractors keyed by model name.
// Loading a model is expensive, so extractors are kept alive and reused
// across indexing jobs. When the pool is full the least recently used
// extractor is evicted and its session released.
type ExtractorPool struct {
	mu           sync.Mutex
	cache        *lru.Cache[string, *pooledExtractor]
	newExtractor func(modelName string) (SpanExtractFunc, func() error, error)
	logger       *slog.Logger
}

// NewExtractorPool creates an extractor pool holding at most size extractors
func NewExtractorPool(size int, logger *slog.Logger) (*ExtractorPool, error) {
	pool := &ExtractorPool{
		newExtractor: NewSpanExtractor,
		logger:       logger,
	}

	cache, err := lru.NewWithEvict(size, pool.onEvict)
	if err != nil {
		return nil, helper.NewError("create lru cache", err)
	}
	pool.cache = cache

	return pool, nil
}

// Get returns the extractor for a model name, loading it on first use
func (p *ExtractorPool) Get(modelName string) (SpanExtractFunc, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pooled, ok := p.cache.Get(modelName); ok {
		return pooled.extract, nil
	}

	extract, closeFunc, err := p.newExtractor(modelName)
	if err != nil {
		return nil, helper.NewError("create span extractor", err)
	}

	p.cache.Add(modelName, &pooledExtractor{extract: extract, close: closeFunc})
	p.logger.Info("Loaded NER extractor", "model", modelName)

	return extract, nil
}

// Close releases all extractors held by the pool
func (p *ExtractorPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache.Purge()
}

func (p *ExtractorPool) onEvict(modelName string, pooled *pooledExtractor) {
	if err := pooled.close(); err != nil {
		p.logger.Warn("Failed to close evicted extractor", "model", modelName, "error", err)
	}
}
