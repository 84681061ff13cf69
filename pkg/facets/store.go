package facets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

// Store supplies facet records
type Store interface {
	FindAll(ctx context.Context) ([]domain.Facet, error)
}

// PostgresStore reads facets from the facets and facet_values tables
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindAll returns every facet with its values, ordered by facet id then value id.
// Facets without values are included with an empty value list.
func (s *PostgresStore) FindAll(ctx context.Context) ([]domain.Facet, error) {
	query := `
		SELECT f.id, f.name, fv.id, fv.value
		FROM facets f
		LEFT JOIN facet_values fv ON fv.facet_id = f.id
		ORDER BY f.id, fv.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query facets: %w", err)
	}
	defer rows.Close()

	facets := []domain.Facet{}
	for rows.Next() {
		var facetID int64
		var name string
		var valueID sql.NullInt64
		var value sql.NullString
		if err := rows.Scan(&facetID, &name, &valueID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan facet: %w", err)
		}

		if n := len(facets); n == 0 || facets[n-1].ID != facetID {
			facets = append(facets, domain.Facet{ID: facetID, Name: name, Values: []domain.FacetValue{}})
		}
		if valueID.Valid {
			last := &facets[len(facets)-1]
			last.Values = append(last.Values, domain.FacetValue{ID: valueID.Int64, Value: value.String})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate facets: %w", err)
	}
	return facets, nil
}
