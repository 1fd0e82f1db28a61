package worker

import (
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/blob"
	"github.com/jobmesh/jobmesh/internal/metrics"
	"github.com/jobmesh/jobmesh/internal/models"
	"github.com/jobmesh/jobmesh/internal/payloadstore"
)

// PayloadService implements the worker's POST /submit semantics: allocate a
// fresh directory, write every uploaded file under it, and register a
// Prepared payload (spec §4.6).
type PayloadService struct {
	store   *payloadstore.Store
	workDir string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPayloadService builds a PayloadService rooted at workDir.
func NewPayloadService(store *payloadstore.Store, workDir string, logger *zap.Logger, m *metrics.Metrics) *PayloadService {
	return &PayloadService{store: store, workDir: workDir, logger: logger, metrics: m}
}

// Create writes files to a fresh per-payload directory and registers a
// Prepared payload. All-or-nothing: any write failure removes the partial
// directory and creates no record (spec §4.1's contract, reused by §4.6).
func (s *PayloadService) Create(files []*multipart.FileHeader) (*models.Payload, error) {
	dir, err := blob.NewDir(s.workDir)
	if err != nil {
		return nil, fmt.Errorf("payload_service: create dir: %w", err)
	}

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			blob.Remove(dir)
			return nil, fmt.Errorf("payload_service: open upload %q: %w", fh.Filename, err)
		}
		writeErr := blob.WriteFile(dir, fh.Filename, src)
		src.Close()
		if writeErr != nil {
			blob.Remove(dir)
			return nil, fmt.Errorf("payload_service: write upload %q: %w", fh.Filename, writeErr)
		}
	}

	id := s.store.Create(dir)
	p, err := s.store.Get(id)
	if err != nil {
		blob.Remove(dir)
		return nil, fmt.Errorf("payload_service: fetch created payload: %w", err)
	}

	s.metrics.IncrementPayloadsPrepared()
	s.logger.Info("payload prepared", zap.Int("payload_id", id), zap.String("loc", dir))
	return p, nil
}
