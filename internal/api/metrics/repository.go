package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/grindelf/accounts/internal/core/domain"
	"github.com/grindelf/accounts/internal/core/ports"
)

type instrumentedRepository struct {
	next    ports.UserRepository
	backend string
	m       *Metrics
}

// InstrumentRepository wraps repo so every call is timed under the given
// backend label. Missing and duplicate users are outcomes, not storage errors.
func InstrumentRepository(repo ports.UserRepository, backend string, m *Metrics) ports.UserRepository {
	return &instrumentedRepository{next: repo, backend: backend, m: m}
}

func (r *instrumentedRepository) observe(op string, start time.Time, err error) {
	r.m.StorageOperationDuration.WithLabelValues(r.backend, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrUserExists) {
		r.m.StorageErrorsTotal.WithLabelValues(r.backend, op).Inc()
	}
}

func (r *instrumentedRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	start := time.Now()
	u, err := r.next.GetByName(ctx, name)
	r.observe("get_by_name", start, err)
	return u, err
}

func (r *instrumentedRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	start := time.Now()
	users, err := r.next.GetAll(ctx)
	r.observe("get_all", start, err)
	return users, err
}

func (r *instrumentedRepository) Save(ctx context.Context, user domain.User) error {
	start := time.Now()
	err := r.next.Save(ctx, user)
	r.observe("save", start, err)
	return err
}

func (r *instrumentedRepository) Update(ctx context.Context, user domain.User) error {
	start := time.Now()
	err := r.next.Update(ctx, user)
	r.observe("update", start, err)
	return err
}

func (r *instrumentedRepository) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := r.next.Delete(ctx, name)
	r.observe("delete", start, err)
	return err
}
