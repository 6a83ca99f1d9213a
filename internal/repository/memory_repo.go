package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/models"

	"github.com/google/uuid"
)

// MemoryApplicationRepository keeps applications in process memory. It backs
// local runs without Postgres and tests.
type MemoryApplicationRepository struct {
	mu   sync.RWMutex
	apps []models.Application
	now  func() time.Time
}

func NewMemoryApplicationRepository() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{now: time.Now}
}

func (r *MemoryApplicationRepository) Create(ctx context.Context, app models.NewApplication) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	stored := models.Application{
		ID:              uuid.New().String(),
		FullName:        app.FullName,
		Email:           app.Email,
		Phone:           app.Phone,
		Goal:            app.Goal,
		ExperienceLevel: app.ExperienceLevel,
		CommitmentLevel: app.CommitmentLevel,
		Message:         app.Message,
		CreatedAt:       r.now().UTC(),
	}

	r.mu.Lock()
	r.apps = append(r.apps, stored)
	r.mu.Unlock()

	return &stored, nil
}

func (r *MemoryApplicationRepository) List(ctx context.Context) ([]models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryError(err)
	}

	r.mu.RLock()
	out := make([]models.Application, len(r.apps))
	copy(out, r.apps)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryApplicationRepository) Ping(ctx context.Context) error {
	return nil
}
