package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when an evaluation id does not exist.
var ErrNotFound = errors.New("evaluation not found")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Evaluation{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveEvaluation inserts an evaluation row.
func (d *Database) SaveEvaluation(e *Evaluation) error {
	if e == nil {
		return errors.New("evaluation is nil")
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("evaluation id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(e).Error
}

// GetEvaluation retrieves an evaluation by ID.
func (d *Database) GetEvaluation(id string) (*Evaluation, error) {
	var row Evaluation
	if err := d.gorm.First(&row, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// EvaluationQuery encapsulates filters and pagination for listing evaluation rows.
type EvaluationQuery struct {
	Query          string
	Classification string
	Source         string
	Sort           string
	Offset         int
	Limit          int
}

// ListEvaluations returns paginated evaluation records applying optional filters.
// A non-positive Limit returns every matching row.
func (d *Database) ListEvaluations(opts EvaluationQuery) ([]Evaluation, int64, error) {
	base := d.gorm.Model(&Evaluation{})
	if q := strings.ToLower(strings.TrimSpace(opts.Query)); q != "" {
		like := "%" + q + "%"
		base = base.Where("LOWER(dilemma) LIKE ? OR LOWER(synthesis) LIKE ?", like, like)
	}
	if class := strings.TrimSpace(opts.Classification); class != "" {
		base = base.Where("classification = ?", strings.ToUpper(class))
	}
	if src := strings.TrimSpace(opts.Source); src != "" {
		base = base.Where("source = ?", strings.ToLower(src))
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	queryBuilder := base.Order(orderForSort(opts.Sort))
	if opts.Offset > 0 {
		queryBuilder = queryBuilder.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		queryBuilder = queryBuilder.Limit(opts.Limit)
	}

	var rows []Evaluation
	if err := queryBuilder.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByClassification returns the number of stored evaluations per classification.
func (d *Database) CountByClassification() (map[string]int64, error) {
	var rows []struct {
		Classification string
		Total          int64
	}
	err := d.gorm.Model(&Evaluation{}).
		Select("classification, COUNT(*) AS total").
		Group("classification").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Classification] = row.Total
	}
	return out, nil
}

func orderForSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "integrity_desc":
		return "integrity_score DESC, created_at DESC"
	case "integrity_asc":
		return "integrity_score ASC, created_at DESC"
	case "z_desc":
		return "z DESC, created_at DESC"
	case "z_asc":
		return "z ASC, created_at DESC"
	case "created_asc":
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}
