package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/smartapplicant/internal/types"
)

// Application is one archived letter/email pair.
type Application struct {
	ID              uuid.UUID      `json:"id"`
	SessionID       string         `json:"session_id"`
	CompanyName     string         `json:"company_name"`
	MatchPercentage int            `json:"match_percentage"`
	MatchReason     string         `json:"match_reason"`
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Sources         []types.Source `json:"sources"`
	JobDescription  string         `json:"job_description,omitempty"`
	Letter          string         `json:"letter"`
	Email           string         `json:"email,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ApplicationFilters holds optional filters for listing applications
type ApplicationFilters struct {
	SessionID string
	Company   string
	Limit     int
}

// DefaultListLimit caps list queries without an explicit limit.
const DefaultListLimit = 50

// NewApplication builds an archive record from a finished session.
func NewApplication(sessionID, jobDescription string, assessment *types.MatchAssessment, letter, email string) *Application {
	app := &Application{
		SessionID:      sessionID,
		JobDescription: jobDescription,
		Letter:         letter,
		Email:          email,
	}
	if assessment != nil {
		app.CompanyName = assessment.CompanyName
		app.MatchPercentage = assessment.MatchPercentage
		app.MatchReason = assessment.MatchReason
		app.Strengths = assessment.Strengths
		app.Weaknesses = assessment.Weaknesses
		app.Sources = assessment.Sources
	}
	return app
}

// SaveApplication inserts app and fills in its ID and CreatedAt.
func (db *DB) SaveApplication(ctx context.Context, app *Application) error {
	strengths, err := marshalList(app.Strengths)
	if err != nil {
		return err
	}
	weaknesses, err := marshalList(app.Weaknesses)
	if err != nil {
		return err
	}
	sources, err := marshalList(app.Sources)
	if err != nil {
		return err
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO applications (session_id, company_name, match_percentage, match_reason,
		     strengths, weaknesses, sources, job_description, letter, email)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		app.SessionID, app.CompanyName, app.MatchPercentage, app.MatchReason,
		strengths, weaknesses, sources, app.JobDescription, app.Letter, app.Email,
	).Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

const applicationColumns = `id, session_id, company_name, match_percentage, match_reason,
	strengths, weaknesses, sources, job_description, letter, email, created_at`

// GetApplication retrieves an application by ID. It returns nil, nil when none exists.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)

	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplications returns the newest applications first.
func (db *DB) ListApplications(ctx context.Context, filters ApplicationFilters) ([]Application, error) {
	query, args := buildListQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// DeleteApplication removes an application.
func (db *DB) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

func buildListQuery(filters ApplicationFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	query := `SELECT ` + applicationColumns + ` FROM applications WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.SessionID != "" {
		query += fmt.Sprintf(" AND session_id = $%d", argNum)
		args = append(args, filters.SessionID)
		argNum++
	}
	if filters.Company != "" {
		query += fmt.Sprintf(" AND company_name ILIKE $%d", argNum)
		args = append(args, "%"+filters.Company+"%")
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

func scanApplication(row pgx.Row) (*Application, error) {
	var app Application
	var strengths, weaknesses, sources []byte
	err := row.Scan(&app.ID, &app.SessionID, &app.CompanyName, &app.MatchPercentage, &app.MatchReason,
		&strengths, &weaknesses, &sources, &app.JobDescription, &app.Letter, &app.Email, &app.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(strengths, &app.Strengths); err != nil {
		return nil, err
	}
	if err := unmarshalList(weaknesses, &app.Weaknesses); err != nil {
		return nil, err
	}
	if err := unmarshalList(sources, &app.Sources); err != nil {
		return nil, err
	}
	return &app, nil
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list: %w", err)
	}
	return b, nil
}

func unmarshalList[T any](data []byte, out *[]T) error {
	if len(data) == 0 {
		*out = []T{}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return nil
}
