package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"service-map/core/database"
	"service-map/core/mapping"

	"gorm.io/gorm"
)

// ErrSchemaMismatch is returned when the providers table lacks required columns.
var ErrSchemaMismatch = errors.New("providers table schema mismatch")

var requiredColumns = []string{"id", "name", "latitude", "longitude"}

// Repository reads the provider snapshot.
type Repository struct {
	db    *gorm.DB
	table string
}

// NewRepository creates a repository over table; an empty table means "providers".
func NewRepository(db *gorm.DB, table string) *Repository {
	if table == "" {
		table = Provider{}.TableName()
	}
	return &Repository{db: db, table: table}
}

// ListEntities returns every provider as an entity.
func (r *Repository) ListEntities(ctx context.Context) ([]mapping.Entity, error) {
	var rows []Provider
	if err := r.db.WithContext(ctx).Table(r.table).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	out := make([]mapping.Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Entity())
	}
	return out, nil
}

// VerifySchema checks that the table carries the columns markers need.
func (r *Repository) VerifySchema() error {
	columns, err := database.GetTableColumns(r.db, r.table)
	if err != nil {
		return err
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c.Field] = true
	}
	var missing []string
	for _, name := range requiredColumns {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %s", ErrSchemaMismatch, r.table, strings.Join(missing, ", "))
	}
	return nil
}
