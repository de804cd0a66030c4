package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/grindelf/accounts/internal/core/domain"
)

type stubRepo struct {
	err error
}

func (s *stubRepo) GetByName(context.Context, string) (*domain.User, error) { return nil, s.err }
func (s *stubRepo) GetAll(context.Context) ([]domain.User, error)           { return nil, s.err }
func (s *stubRepo) Save(context.Context, domain.User) error                 { return s.err }
func (s *stubRepo) Update(context.Context, domain.User) error               { return s.err }
func (s *stubRepo) Delete(context.Context, string) error                    { return s.err }

func TestInstrumentRepository_CountsOnlyStorageFailures(t *testing.T) {
	m := New(prometheus.NewRegistry())
	stub := &stubRepo{err: domain.ErrUserNotFound}
	repo := InstrumentRepository(stub, "json", m)

	if _, err := repo.GetByName(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if got := testutil.ToFloat64(m.StorageErrorsTotal.WithLabelValues("json", "get_by_name")); got != 0 {
		t.Fatalf("not-found should not count as storage error, got %v", got)
	}

	stub.err = errors.New("disk on fire")
	_ = repo.Save(context.Background(), domain.NewUser("a", "b"))
	if got := testutil.ToFloat64(m.StorageErrorsTotal.WithLabelValues("json", "save")); got != 1 {
		t.Fatalf("expected one storage error, got %v", got)
	}
	if n := testutil.CollectAndCount(m.StorageOperationDuration); n != 2 {
		t.Fatalf("expected 2 observed series, got %d", n)
	}
}

func TestMetrics_Outcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.LoginAttempt("success")
	m.LoginAttempt("success")
	m.Signup("name_taken")

	if got := testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("login success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SignupsTotal.WithLabelValues("name_taken")); got != 1 {
		t.Fatalf("signup name_taken = %v, want 1", got)
	}
}
