package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/adapter/memory"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type stubHistory struct {
	entries []domain.AuditEntry
	err     error
}

func (s *stubHistory) Name() string { return "stub" }

func (s *stubHistory) Record(context.Context, domain.AuditEntry) error { return nil }

func (s *stubHistory) ListBySession(context.Context, string) ([]domain.AuditEntry, error) {
	return s.entries, s.err
}

var now = time.Date(2025, 8, 2, 20, 0, 0, 0, time.UTC)

func setup(t *testing.T, state domain.State, history interfaces.AuditRepository) (*Service, *audit.Log) {
	t.Helper()
	repo := memory.NewSessionRepository()
	s := domain.Session{
		ID: "sess-1", Table: "T-3", State: state, Zone: domain.ZoneA,
		EtaMin: 3, BufferSec: 10, Runner: "user-1", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), s))

	log := audit.NewLog(10)
	svc := NewService(repo, memory.NewStaffRepository(memory.DemoStaff()...), log, history, logger.Nop())
	return svc, log
}

func TestGetSessionStatus(t *testing.T) {
	svc, _ := setup(t, domain.StateOut, nil)

	resp, err := svc.GetSessionStatus(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateOut, resp.CurrentState)
	assert.Equal(t, "user-1", resp.Runner)
	require.NotNil(t, resp.EstimatedArrival)
	assert.Equal(t, now.Add(3*time.Minute+10*time.Second), *resp.EstimatedArrival)

	_, err = svc.GetSessionStatus(context.Background(), "nope")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestGetSessionStatusWithoutEta(t *testing.T) {
	svc, _ := setup(t, domain.StateActive, nil)

	resp, err := svc.GetSessionStatus(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Nil(t, resp.EstimatedArrival)
}

func TestGetSessionHistoryFromMemory(t *testing.T) {
	svc, log := setup(t, domain.StateReady, nil)
	log.Append(domain.AuditEntry{ID: "a", SessionID: "sess-1"})
	log.Append(domain.AuditEntry{ID: "b", SessionID: "other"})

	entries, err := svc.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ID)
}

func TestGetSessionHistoryPrefersStore(t *testing.T) {
	stored := &stubHistory{entries: []domain.AuditEntry{{ID: "db-1"}, {ID: "db-2"}}}
	svc, log := setup(t, domain.StateReady, stored)
	log.Append(domain.AuditEntry{ID: "mem", SessionID: "sess-1"})

	entries, err := svc.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	stored.err = errors.New("db down")
	entries, err = svc.GetSessionHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mem", entries[0].ID)
}

func TestStaff(t *testing.T) {
	svc, _ := setup(t, domain.StateReady, nil)
	ctx := context.Background()

	info, err := svc.GetStaff(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, domain.DisplayInfo{Name: "Sam Supervisor", Role: domain.RoleSupervisor, TrustLevel: domain.TrustVerified}, info)

	_, err = svc.GetStaff(ctx, "user-0")
	assert.Error(t, err)

	all, err := svc.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
