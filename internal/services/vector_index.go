package services

import (
	"context"
	"fmt"

	"github.com/yungbote/competency-advisor/internal/data/repos"
	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
	"github.com/yungbote/competency-advisor/internal/platform/qdrant"
)

// VectorIndex is the nearest-neighbour contract over catalog embeddings.
// Nearest returns rows closest first and only rows that carry an embedding.
type VectorIndex interface {
	Nearest(ctx context.Context, vec []float32, k int) ([]*types.Competency, error)
	// Index stores vec for row so later Nearest calls can return it.
	Index(ctx context.Context, row *types.Competency, vec []float32) error
	Provider() string
}

const (
	VectorProviderPGVector = "pgvector"
	VectorProviderQdrant   = "qdrant"
)

type pgvectorIndex struct {
	log            *logger.Logger
	competencyRepo repos.CompetencyRepo
}

// NewPGVectorIndex searches the embedding column of the catalog table.
func NewPGVectorIndex(log *logger.Logger, competencyRepo repos.CompetencyRepo) VectorIndex {
	return &pgvectorIndex{
		log:            log.With("service", "PGVectorIndex"),
		competencyRepo: competencyRepo,
	}
}

func (ix *pgvectorIndex) Provider() string { return VectorProviderPGVector }

func (ix *pgvectorIndex) Nearest(ctx context.Context, vec []float32, k int) ([]*types.Competency, error) {
	return ix.competencyRepo.Nearest(dbctx.New(ctx), vec, k)
}

func (ix *pgvectorIndex) Index(ctx context.Context, row *types.Competency, vec []float32) error {
	return ix.competencyRepo.SetEmbedding(dbctx.New(ctx), row.ID, vec)
}

type qdrantStore interface {
	Upsert(ctx context.Context, points []qdrant.Point) error
	Search(ctx context.Context, q []float32, topK int) ([]qdrant.Match, error)
	Delete(ctx context.Context, ids []int64) error
}

type qdrantIndex struct {
	log            *logger.Logger
	store          qdrantStore
	competencyRepo repos.CompetencyRepo
}

// NewQdrantIndex keeps vectors in qdrant and loads matched rows from the
// catalog. The catalog embedding column is still written so ingest can tell
// which rows are done.
func NewQdrantIndex(log *logger.Logger, store qdrantStore, competencyRepo repos.CompetencyRepo) VectorIndex {
	return &qdrantIndex{
		log:            log.With("service", "QdrantIndex"),
		store:          store,
		competencyRepo: competencyRepo,
	}
}

func (ix *qdrantIndex) Provider() string { return VectorProviderQdrant }

func (ix *qdrantIndex) Nearest(ctx context.Context, vec []float32, k int) ([]*types.Competency, error) {
	matches, err := ix.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.CompetencyID)
	}
	rows, err := ix.competencyRepo.GetByIDs(dbctx.New(ctx), ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*types.Competency, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]*types.Competency, 0, len(matches))
	var stale []int64
	for _, m := range matches {
		if r, ok := byID[m.CompetencyID]; ok {
			out = append(out, r)
			continue
		}
		stale = append(stale, m.CompetencyID)
	}
	if len(stale) > 0 {
		// points whose catalog row is gone
		if err := ix.store.Delete(ctx, stale); err != nil {
			ix.log.Warn("Failed to prune stale qdrant points", "count", len(stale), "error", err)
		}
	}
	return out, nil
}

func (ix *qdrantIndex) Index(ctx context.Context, row *types.Competency, vec []float32) error {
	err := ix.store.Upsert(ctx, []qdrant.Point{{
		CompetencyID: row.ID,
		Vector:       vec,
		Payload: map[string]any{
			"competency_name":        row.Name,
			"proficiency_level_name": row.ProficiencyLevel,
			"focus_area":             row.FocusArea,
		},
	}})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return ix.competencyRepo.SetEmbedding(dbctx.New(ctx), row.ID, vec)
}
