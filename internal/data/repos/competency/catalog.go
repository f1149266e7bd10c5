package competency

import (
	"errors"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/competency-advisor/internal/domain"
	"github.com/yungbote/competency-advisor/internal/pkg/dbctx"
	"github.com/yungbote/competency-advisor/internal/platform/logger"
)

// CompetencyRepo is the catalog query surface. Every list is ordered by
// ascending competency_id unless stated otherwise.
type CompetencyRepo interface {
	Create(dbc dbctx.Context, rows []*types.Competency) ([]*types.Competency, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Competency, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Competency, error)
	ListByName(dbc dbctx.Context, name string) ([]*types.Competency, error)
	SearchByName(dbc dbctx.Context, query string) ([]*types.Competency, error)
	ListDistinctNames(dbc dbctx.Context) ([]string, error)
	// Nearest orders by cosine distance, then id. Requires pgvector.
	Nearest(dbc dbctx.Context, vec []float32, k int) ([]*types.Competency, error)
	ListIncompleteForEmployee(dbc dbctx.Context, employeeID int64) ([]*types.Competency, error)
	ListMissingEmbeddings(dbc dbctx.Context, limit int) ([]*types.Competency, error)
	SetEmbedding(dbc dbctx.Context, id int64, vec []float32) error
	Count(dbc dbctx.Context) (int64, error)
}

type competencyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompetencyRepo(db *gorm.DB, baseLog *logger.Logger) CompetencyRepo {
	return &competencyRepo{db: db, log: baseLog.With("repo", "CompetencyRepo")}
}

func (r *competencyRepo) Create(dbc dbctx.Context, rows []*types.Competency) ([]*types.Competency, error) {
	if len(rows) == 0 {
		return []*types.Competency{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *competencyRepo) GetByID(dbc dbctx.Context, id int64) (*types.Competency, error) {
	var row types.Competency
	err := dbc.DB(r.db).Where("competency_id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *competencyRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Competency, error) {
	var results []*types.Competency
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("competency_id IN ?", ids).
		Order("competency_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListByName matches the name case-insensitively.
func (r *competencyRepo) ListByName(dbc dbctx.Context, name string) ([]*types.Competency, error) {
	var results []*types.Competency
	name = strings.TrimSpace(name)
	if name == "" {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("LOWER(competency_name) = ?", strings.ToLower(name)).
		Order("competency_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *competencyRepo) SearchByName(dbc dbctx.Context, query string) ([]*types.Competency, error) {
	var results []*types.Competency
	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	if err := dbc.DB(r.db).
		Where("LOWER(competency_name) LIKE ? ESCAPE '\\'", pattern).
		Order("competency_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListDistinctNames returns each catalog name once, ordered by the lowest id carrying it.
func (r *competencyRepo) ListDistinctNames(dbc dbctx.Context) ([]string, error) {
	var rows []struct {
		Name    string
		FirstID int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Competency{}).
		Select("competency_name AS name, MIN(competency_id) AS first_id").
		Group("competency_name").
		Order("first_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out, nil
}

func (r *competencyRepo) Nearest(dbc dbctx.Context, vec []float32, k int) ([]*types.Competency, error) {
	var results []*types.Competency
	if len(vec) == 0 {
		return results, nil
	}
	if k <= 0 {
		k = 5
	}
	if err := dbc.DB(r.db).
		Where("embedding IS NOT NULL").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <=> ?, competency_id ASC",
			Vars:               []interface{}{pgvector.NewVector(vec)},
			WithoutParentheses: true,
		}}).
		Limit(k).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *competencyRepo) ListIncompleteForEmployee(dbc dbctx.Context, employeeID int64) ([]*types.Competency, error) {
	var results []*types.Competency
	tx := dbc.DB(r.db)
	completed := tx.Session(&gorm.Session{NewDB: true}).
		Model(&types.EmployeeCompetency{}).
		Select("competency_id").
		Where("employee_id = ? AND UPPER(status) = ?", employeeID, string(types.StatusCompleted))
	if err := tx.
		Where("competency_id NOT IN (?)", completed).
		Order("competency_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *competencyRepo) ListMissingEmbeddings(dbc dbctx.Context, limit int) ([]*types.Competency, error) {
	var results []*types.Competency
	q := dbc.DB(r.db).Where("embedding IS NULL").Order("competency_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *competencyRepo) SetEmbedding(dbc dbctx.Context, id int64, vec []float32) error {
	v := pgvector.NewVector(vec)
	return dbc.DB(r.db).
		Model(&types.Competency{}).
		Where("competency_id = ?", id).
		Update("embedding", &v).Error
}

func (r *competencyRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Competency{}).Count(&n).Error
	return n, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
