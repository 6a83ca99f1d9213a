package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/models"

	"github.com/google/uuid"
)

// ApplicationStore persists coaching applications. Implementations assign
// ID and CreatedAt and never update or delete a record.
type ApplicationStore interface {
	Create(ctx context.Context, app models.NewApplication) (*models.Application, error)
	List(ctx context.Context) ([]models.Application, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

const applicationColumns = `id, full_name, email, phone, goal, experience_level, commitment_level, message, created_at`

// ApplicationRepository is the Postgres-backed ApplicationStore.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app models.NewApplication) (*models.Application, error) {
	query := `
		INSERT INTO applications (
			id, full_name, email, phone, goal, experience_level, commitment_level, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	id := uuid.New().String()

	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		id,
		app.FullName,
		app.Email,
		nullString(app.Phone),
		app.Goal,
		app.ExperienceLevel,
		app.CommitmentLevel,
		app.Message,
	).Scan(&createdAt)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("insert application: %w", err))
	}

	return &models.Application{
		ID:              id,
		FullName:        app.FullName,
		Email:           app.Email,
		Phone:           app.Phone,
		Goal:            app.Goal,
		ExperienceLevel: app.ExperienceLevel,
		CommitmentLevel: app.CommitmentLevel,
		Message:         app.Message,
		CreatedAt:       createdAt.UTC(),
	}, nil
}

func (r *ApplicationRepository) List(ctx context.Context) ([]models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		var (
			app   models.Application
			phone sql.NullString
		)
		if err := rows.Scan(
			&app.ID,
			&app.FullName,
			&app.Email,
			&phone,
			&app.Goal,
			&app.ExperienceLevel,
			&app.CommitmentLevel,
			&app.Message,
			&app.CreatedAt,
		); err != nil {
			return nil, queryError(err)
		}
		app.Phone = phone.String
		app.CreatedAt = app.CreatedAt.UTC()
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}

	return apps, nil
}

func (r *ApplicationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func queryError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError("list_applications", err)
	}
	return apperrors.NewQueryExecutionFailedError("list_applications", err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
