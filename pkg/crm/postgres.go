package crm

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSource reads CRM records from the crm_licenses and crm_articles tables
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a new PostgresSource
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Licenses returns every license record
func (s *PostgresSource) Licenses(ctx context.Context) ([]LicenseRecord, error) {
	query := `
		SELECT service_id, institution_id, contract_id, institution_name, start_date, end_date, group_license
		FROM crm_licenses
		ORDER BY service_id, institution_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}
	defer rows.Close()

	var records []LicenseRecord
	for rows.Next() {
		var rec LicenseRecord
		var contractID, institutionName sql.NullString
		var startDate, endDate sql.NullTime
		if err := rows.Scan(&rec.ServiceID, &rec.InstitutionID, &contractID, &institutionName,
			&startDate, &endDate, &rec.License.GroupLicense); err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		rec.License.ContractID = contractID.String
		rec.License.InstitutionName = institutionName.String
		rec.License.StartDate = nullTime(startDate)
		rec.License.EndDate = nullTime(endDate)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate licenses: %w", err)
	}
	return records, nil
}

// Articles returns every article record. Rows without an LMNG identifier come back as
// ArticleNone for their service.
func (s *PostgresSource) Articles(ctx context.Context) ([]Article, error) {
	query := `
		SELECT service_id, lmng_identifier, android_play_store_url, apple_app_store_url
		FROM crm_articles
		ORDER BY service_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var serviceID int64
		var lmng, android, apple sql.NullString
		if err := rows.Scan(&serviceID, &lmng, &android, &apple); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		article := ArticleNone
		if lmng.String != "" {
			article = Article{LmngIdentifier: lmng.String}
			if android.String != "" {
				article.AndroidPlayStore = &Medium{URL: android.String}
			}
			if apple.String != "" {
				article.AppleAppStore = &Medium{URL: apple.String}
			}
		}
		article.ServiceID = serviceID
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
