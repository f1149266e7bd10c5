package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/learning"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/llm"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

type IngestOptions struct {
	BatchSize   int
	Concurrency int
	// Limit stops after this many rows were attempted; 0 means all.
	Limit int
}

type IngestReport struct {
	Embedded  int     `json:"embedded"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

// IngestService backfills embeddings for catalog rows that have none.
type IngestService interface {
	Run(ctx context.Context, opts IngestOptions) (*IngestReport, error)
}

type ingestService struct {
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
	embedder       llm.Embedder
	index          VectorIndex
}

func NewIngestService(log *logger.Logger, competencyRepo repos.CompetencyRepo, embedder llm.Embedder, index VectorIndex) IngestService {
	return &ingestService{
		log:            log.With("service", "IngestService"),
		competencyRepo: competencyRepo,
		embedder:       embedder,
		index:          index,
	}
}

func (s *ingestService) Run(ctx context.Context, opts IngestOptions) (*IngestReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	report := &IngestReport{}
	failed := map[int64]struct{}{}
	attempted := 0

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// failed rows stay NULL and come back first, so over-fetch past them
		rows, err := s.competencyRepo.ListMissingEmbeddings(dbctx.New(ctx), opts.BatchSize+len(failed))
		if err != nil {
			return report, fmt.Errorf("list missing embeddings: %w", err)
		}
		batch := make([]*types.Competency, 0, opts.BatchSize)
		for _, r := range rows {
			if _, skip := failed[r.ID]; skip {
				continue
			}
			if opts.Limit > 0 && attempted+len(batch) >= opts.Limit {
				break
			}
			batch = append(batch, r)
			if len(batch) == opts.BatchSize {
				break
			}
		}
		if len(batch) == 0 {
			break
		}
		attempted += len(batch)
		s.log.Info("Embedding batch", "rows", len(batch), "provider", s.index.Provider())

		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, row := range batch {
			row := row
			g.Go(func() error {
				err := s.embedOne(gctx, row)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					s.log.Warn("Embedding row failed", "competency_id", row.ID, "error", err)
					failed[row.ID] = struct{}{}
					report.Failed++
					report.FailedIDs = append(report.FailedIDs, row.ID)
					return nil
				}
				report.Embedded++
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}
		if opts.Limit > 0 && attempted >= opts.Limit {
			break
		}
	}
	s.log.Info("Ingest finished", "embedded", report.Embedded, "failed", report.Failed)
	return report, nil
}

func (s *ingestService) embedOne(ctx context.Context, row *types.Competency) error {
	vec, err := s.embedder.Embed(ctx, learning.EmbeddingText(row))
	if err != nil {
		return err
	}
	return s.index.Index(ctx, row, vec)
}
