package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driven"
	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
	"github.com/custodia-labs/taxadvisor/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService builds the vector index from the documents directory.
type IndexService struct {
	documentsPath string
	loader        driven.DocumentLoader
	normalisers   driven.NormaliserRegistry
	chunker       driven.Chunker
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	watcher       driven.FileWatcher

	batchSize    int
	workers      int
	limiter      *rate.Limiter
	embedTimeout time.Duration
	now          func() time.Time
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWorkers bounds concurrent embedding requests.
func WithWorkers(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchRate paces embedding requests. Zero or less disables pacing.
func WithBatchRate(perSecond float64) IndexOption {
	return func(s *IndexService) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithEmbedTimeout bounds each embedding request.
func WithEmbedTimeout(d time.Duration) IndexOption {
	return func(s *IndexService) {
		s.embedTimeout = d
	}
}

// WithWatcher enables Watch.
func WithWatcher(w driven.FileWatcher) IndexOption {
	return func(s *IndexService) {
		s.watcher = w
	}
}

// NewIndexService creates an index service for the given documents directory.
func NewIndexService(
	documentsPath string,
	loader driven.DocumentLoader,
	normalisers driven.NormaliserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	opts ...IndexOption,
) *IndexService {
	s := &IndexService{
		documentsPath: documentsPath,
		loader:        loader,
		normalisers:   normalisers,
		chunker:       chunker,
		embedder:      embedder,
		store:         store,
		batchSize:     domain.DefaultBatchSize,
		workers:       domain.DefaultWorkers,
		limiter:       rate.NewLimiter(rate.Inf, 0),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pendingSource is a document whose chunks need embedding and writing.
type pendingSource struct {
	doc    *domain.Document
	chunks []domain.Chunk
}

// Index brings the store up to date with the documents directory.
//
// Unsupported or unreadable files are skipped. Every changed file is embedded
// before anything is written, so an embedding failure leaves the store as it was.
func (s *IndexService) Index(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error) {
	logger.Section("Indexing")
	start := s.now()
	report := &domain.IndexReport{}

	if s.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexing, domain.ErrEmbeddingUnavailable)
	}

	stale, err := s.prepareStore(ctx, opts.Rebuild)
	if err != nil {
		return nil, err
	}

	refs, err := s.loader.List(ctx, s.documentsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexing, err)
	}
	logger.Debug("found %d files under %s", len(refs), s.documentsPath)

	stored, err := s.store.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list stored sources: %w", domain.ErrIndexing, err)
	}

	present := make(map[string]bool, len(refs))
	var pending []pendingSource

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ref.Supported() {
			logger.Warn("skipping %s: unsupported file type", ref.Path)
			report.Skipped = append(report.Skipped, ref.Path)
			continue
		}
		present[ref.Path] = true

		doc, err := s.load(ctx, ref)
		if err != nil {
			logger.Warn("skipping %s: %v", ref.Path, err)
			report.Skipped = append(report.Skipped, ref.Path)
			continue
		}

		if info, ok := stored[ref.Path]; ok && !stale && info.ContentHash == doc.ContentHash && info.Chunks > 0 {
			report.Unchanged = append(report.Unchanged, ref.Path)
			continue
		}

		chunks, err := s.chunker.Chunk(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %w", domain.ErrIndexing, ref.Path, err)
		}
		pending = append(pending, pendingSource{doc: doc, chunks: chunks})
	}

	if err := s.embedAll(ctx, pending); err != nil {
		return nil, err
	}

	written := make(map[string]bool, len(pending))
	for _, p := range pending {
		n, err := s.write(ctx, p)
		if err != nil {
			return nil, err
		}
		written[p.doc.Path] = true
		if n == 0 {
			logger.Warn("skipping %s: no text content", p.doc.Path)
			report.Skipped = append(report.Skipped, p.doc.Path)
			continue
		}
		report.Indexed = append(report.Indexed, p.doc.Path)
		report.Chunks += n
	}

	for source := range stored {
		// Entries of unknown origin only survive if they were just rewritten.
		if present[source] && (!stale || written[source]) {
			continue
		}
		if err := s.store.DeleteSource(ctx, source); err != nil {
			return nil, fmt.Errorf("%w: remove %s: %w", domain.ErrIndexing, source, err)
		}
		report.Removed = append(report.Removed, source)
	}

	if report.Chunks > 0 {
		if err := s.writeMetadata(ctx, pending); err != nil {
			return nil, err
		}
	}

	report.Duration = s.now().Sub(start)
	logger.Info("indexed %d, unchanged %d, skipped %d, removed %d (%d chunks) in %s",
		len(report.Indexed), len(report.Unchanged), len(report.Skipped), len(report.Removed),
		report.Chunks, report.Duration)
	return report, nil
}

// IndexFile re-indexes one file, or removes its entries if it no longer exists.
func (s *IndexService) IndexFile(ctx context.Context, path string) error {
	if s.embedder == nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexing, domain.ErrEmbeddingUnavailable)
	}
	stale, err := s.prepareStore(ctx, false)
	if err != nil {
		return err
	}

	ref, err := s.loader.Ref(ctx, s.documentsPath, path)
	if errors.Is(err, domain.ErrNotFound) {
		source := s.sourceFor(path)
		logger.Info("removing %s", source)
		if err := s.store.DeleteSource(ctx, source); err != nil {
			return fmt.Errorf("%w: remove %s: %w", domain.ErrIndexing, source, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexing, err)
	}
	if !ref.Supported() {
		return fmt.Errorf("%w: %s: %w", domain.ErrIndexing, ref.Path, domain.ErrUnsupportedFormat)
	}

	doc, err := s.load(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexing, err)
	}
	chunks, err := s.chunker.Chunk(ctx, doc)
	if err != nil {
		return fmt.Errorf("%w: chunk %s: %w", domain.ErrIndexing, ref.Path, err)
	}

	pending := []pendingSource{{doc: doc, chunks: chunks}}
	if err := s.embedAll(ctx, pending); err != nil {
		return err
	}
	n, err := s.write(ctx, pending[0])
	if err != nil {
		return err
	}
	logger.Info("indexed %s (%d chunks)", ref.Path, n)
	if n == 0 {
		return nil
	}
	if stale {
		logger.Warn("index has no model metadata; run a full index to re-embed the remaining sources")
		return nil
	}
	return s.writeMetadata(ctx, pending)
}

// Watch re-indexes files as the watcher reports changes. Failures on one file
// are logged and do not stop the watch.
func (s *IndexService) Watch(ctx context.Context, events chan<- domain.FileChange) error {
	if s.watcher == nil {
		return fmt.Errorf("%w: no file watcher configured", domain.ErrConfiguration)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes := make(chan domain.FileChange)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.watcher.Watch(ctx, s.documentsPath, changes)
	}()

	for {
		select {
		case <-ctx.Done():
			return <-watchErr
		case err := <-watchErr:
			return err
		case change := <-changes:
			logger.Debug("%s %s", change.Type, change.Path)
			if err := s.IndexFile(ctx, change.Path); err != nil {
				logger.Warn("re-index %s: %v", change.Path, err)
				continue
			}
			if events != nil {
				select {
				case events <- change:
				case <-ctx.Done():
				}
			}
		}
	}
}

// Reset removes every entry and the index metadata.
func (s *IndexService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("%w: reset: %w", domain.ErrIndexing, err)
	}
	return nil
}

// Status describes the current contents of the store.
func (s *IndexService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	status := &domain.IndexStatus{Backend: s.store.Name()}

	meta, err := s.store.Metadata(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	default:
		status.Metadata = meta
	}

	sources, err := s.store.Sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	status.Sources = sources
	return status, nil
}

// prepareStore enforces the single-model invariant before any write.
// A rebuild drops the store so a new model can be used.
//
// Metadata is only written once every source of a run has been stored, so
// entries without metadata come from an interrupted run whose model is
// unknown. prepareStore reports such a store as stale and callers must
// re-embed every source instead of trusting the stored content hashes.
func (s *IndexService) prepareStore(ctx context.Context, rebuild bool) (bool, error) {
	if rebuild {
		logger.Info("rebuilding index with %s", s.embedder.ModelName())
		if err := s.store.Reset(ctx); err != nil {
			return false, fmt.Errorf("%w: reset: %w", domain.ErrIndexing, err)
		}
		return false, nil
	}

	meta, err := s.store.Metadata(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		stored, err := s.store.Sources(ctx)
		if err != nil {
			return false, fmt.Errorf("%w: list stored sources: %w", domain.ErrIndexing, err)
		}
		if len(stored) > 0 {
			logger.Warn("index has %d sources but no model metadata; re-embedding everything", len(stored))
			return true, nil
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read metadata: %w", domain.ErrIndexing, err)
	}
	if meta.EmbeddingModel != s.embedder.ModelName() {
		return false, fmt.Errorf("%w: %w", domain.ErrIndexing,
			&domain.ModelMismatchError{Indexed: meta.EmbeddingModel, Current: s.embedder.ModelName()})
	}
	return false, nil
}

// sourceFor maps a path given to IndexFile to the source key used in the store.
func (s *IndexService) sourceFor(path string) string {
	if filepath.IsAbs(path) {
		if root, err := filepath.Abs(s.documentsPath); err == nil {
			if rel, err := filepath.Rel(root, path); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

func (s *IndexService) load(ctx context.Context, ref domain.FileRef) (*domain.Document, error) {
	raw, err := s.loader.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.normalisers.Normalise(ctx, raw)
}

// embedAll fills Embedding on every pending chunk. Batches run concurrently,
// bounded by the worker count and paced by the limiter.
func (s *IndexService) embedAll(ctx context.Context, pending []pendingSource) error {
	type batch struct {
		chunks []*domain.Chunk
	}

	var batches []batch
	var current []*domain.Chunk
	for i := range pending {
		for j := range pending[i].chunks {
			current = append(current, &pending[i].chunks[j])
			if len(current) == s.batchSize {
				batches = append(batches, batch{chunks: current})
				current = nil
			}
		}
	}
	if len(current) > 0 {
		batches = append(batches, batch{chunks: current})
	}
	if len(batches) == 0 {
		return nil
	}

	logger.Debug("embedding %d batches with %s", len(batches), s.embedder.ModelName())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, b := range batches {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrIndexing, err)
			}

			texts := make([]string, len(b.chunks))
			for k, c := range b.chunks {
				texts[k] = c.Content
			}

			callCtx, cancel := withTimeout(gctx, s.embedTimeout)
			defer cancel()

			vectors, err := s.embedder.EmbedBatch(callCtx, texts)
			if err != nil {
				return stageError(domain.ErrIndexing, fmt.Sprintf("embed batch %d", i+1), err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("%w: embed batch %d: got %d vectors for %d texts",
					domain.ErrIndexing, i+1, len(vectors), len(texts))
			}
			for k, c := range b.chunks {
				c.Embedding = vectors[k]
			}
			logger.Debug("embedded batch %d/%d", i+1, len(batches))
			return nil
		})
	}

	return g.Wait()
}

// write replaces the stored entries of one source and returns the number written.
func (s *IndexService) write(ctx context.Context, p pendingSource) (int, error) {
	if err := s.store.DeleteSource(ctx, p.doc.Path); err != nil {
		return 0, fmt.Errorf("%w: replace %s: %w", domain.ErrIndexing, p.doc.Path, err)
	}
	if len(p.chunks) == 0 {
		return 0, nil
	}

	entries := make([]domain.IndexEntry, len(p.chunks))
	for i, c := range p.chunks {
		entries[i] = domain.IndexEntry{
			Key:         c.Key,
			Source:      c.Source,
			ChunkIndex:  c.Index,
			Text:        c.Content,
			Vector:      c.Embedding,
			ContentHash: p.doc.ContentHash,
		}
	}
	if err := s.store.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("%w: upsert %s: %w", domain.ErrIndexing, p.doc.Path, err)
	}
	logger.Debug("wrote %s (%d chunks)", p.doc.Path, len(entries))
	return len(entries), nil
}

func (s *IndexService) writeMetadata(ctx context.Context, pending []pendingSource) error {
	dims := s.embedder.Dimensions()
	for _, p := range pending {
		if len(p.chunks) > 0 {
			dims = len(p.chunks[0].Embedding)
			break
		}
	}

	meta := domain.IndexMetadata{
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     dims,
		UpdatedAt:      s.now(),
	}
	if err := s.store.SetMetadata(ctx, meta); err != nil {
		return fmt.Errorf("%w: write metadata: %w", domain.ErrIndexing, err)
	}
	return nil
}
