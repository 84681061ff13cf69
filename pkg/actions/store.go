package actions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

// Store persists actions
type Store interface {
	Save(ctx context.Context, action *domain.Action) (int64, error)
	Find(ctx context.Context, id int64) (*domain.Action, error)
	FindByIdp(ctx context.Context, idpEntityID string) ([]*domain.Action, error)
	Close(ctx context.Context, ticketKey string) error
	OpenTicketKeys(ctx context.Context, idpEntityID string) ([]string, error)
}

// PostgresStore implements Store on the ss_actions table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const actionColumns = `id, ticket_key, user_id, user_name, action_type, action_status, body, idp, sp,
		       idp_name, sp_name, institution_id, request_date`

// Save inserts the action and sets its ID
func (s *PostgresStore) Save(ctx context.Context, action *domain.Action) (int64, error) {
	query := `
		INSERT INTO ss_actions (ticket_key, user_id, user_name, idp, sp, idp_name, sp_name,
		                        institution_id, action_type, action_status, body, request_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		nullString(action.TicketKey), action.UserID, action.UserName, action.IdpID, action.SpID,
		action.IdpName, action.SpName, action.InstitutionID, string(action.Type), string(action.Status),
		action.Body, action.RequestDate).
		Scan(&action.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to save action: %w", err)
	}
	return action.ID, nil
}

// Find returns the action with id, or nil when there is none
func (s *PostgresStore) Find(ctx context.Context, id int64) (*domain.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM ss_actions WHERE id = $1`

	action, err := scanAction(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find action: %w", err)
	}
	return action, nil
}

// FindByIdp returns all actions of an identity provider, oldest first
func (s *PostgresStore) FindByIdp(ctx context.Context, idpEntityID string) ([]*domain.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM ss_actions WHERE idp = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, idpEntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := []*domain.Action{}
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}
	return actions, nil
}

// Close marks the actions of a ticket as closed
func (s *PostgresStore) Close(ctx context.Context, ticketKey string) error {
	query := `UPDATE ss_actions SET action_status = $1 WHERE ticket_key = $2`
	if _, err := s.db.ExecContext(ctx, query, string(domain.ActionStatusClosed), ticketKey); err != nil {
		return fmt.Errorf("failed to close action: %w", err)
	}
	return nil
}

// OpenTicketKeys returns the ticket keys of the open actions of an identity provider
func (s *PostgresStore) OpenTicketKeys(ctx context.Context, idpEntityID string) ([]string, error) {
	query := `SELECT ticket_key FROM ss_actions WHERE action_status = $1 AND idp = $2 AND ticket_key IS NOT NULL`

	rows, err := s.db.QueryContext(ctx, query, string(domain.ActionStatusOpen), idpEntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan ticket key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ticket keys: %w", err)
	}
	return keys, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAction(row rowScanner) (*domain.Action, error) {
	action := &domain.Action{}
	var ticketKey, body, idpName, spName sql.NullString
	var actionType, actionStatus string
	err := row.Scan(&action.ID, &ticketKey, &action.UserID, &action.UserName, &actionType, &actionStatus,
		&body, &action.IdpID, &action.SpID, &idpName, &spName, &action.InstitutionID, &action.RequestDate)
	if err != nil {
		return nil, err
	}
	action.TicketKey = ticketKey.String
	action.Body = body.String
	action.IdpName = idpName.String
	action.SpName = spName.String
	action.Type = domain.ActionType(actionType)
	action.Status = domain.ActionStatus(actionStatus)
	return action, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
