package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iotinator/iotinator-master/internal/agent"
	"github.com/iotinator/iotinator-master/internal/infrastructure/database"
	_ "github.com/iotinator/iotinator-master/migrations" // registers the schema
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []*AuditLog{
		{Action: ActionRegister, EntityType: EntityAgent, EntityID: "AA", Source: SourceRegistry, CreatedAt: base},
		{Action: ActionProbe, EntityType: EntityAgent, EntityID: "AA", Source: SourceRegistry, CreatedAt: base.Add(time.Second),
			Details: map[string]any{"error": "timeout"}},
		{Action: ActionRegister, EntityType: EntityAgent, EntityID: "BB", Source: SourceRegistry, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if len(e.ID) != len("aud-")+8 {
			t.Errorf("generated ID = %q", e.ID)
		}
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 3 || len(res.Logs) != 3 || res.Limit != defaultLimit {
		t.Fatalf("List() = total %d, %d logs, limit %d", res.Total, len(res.Logs), res.Limit)
	}
	if res.Logs[0].EntityID != "BB" {
		t.Errorf("most recent first: got %s", res.Logs[0].EntityID)
	}
	if !res.Logs[2].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", res.Logs[2].CreatedAt, base)
	}
	if res.Logs[1].Details["error"] != "timeout" {
		t.Errorf("Details = %v", res.Logs[1].Details)
	}
}

func TestSQLiteRepository_ListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, action := range []string{ActionRegister, ActionRegister, ActionRename, ActionReset} {
		mac := "AA"
		if i%2 == 1 {
			mac = "BB"
		}
		if err := repo.Create(ctx, &AuditLog{Action: action, EntityType: EntityAgent, EntityID: mac, Source: SourceRegistry}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"by action", Filter{Action: ActionRegister}, 2},
		{"by entity", Filter{EntityID: "BB"}, 2},
		{"combined", Filter{Action: ActionRegister, EntityID: "AA"}, 1},
		{"no match", Filter{Action: ActionRefresh}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want || len(res.Logs) != tt.want {
				t.Errorf("total=%d logs=%d, want %d", res.Total, len(res.Logs), tt.want)
			}
		})
	}
}

func TestSQLiteRepository_Pagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, &AuditLog{Action: ActionRefresh, EntityType: EntityAgent, Source: SourceRegistry}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	res, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 5 || len(res.Logs) != 1 {
		t.Errorf("total=%d logs=%d, want 5/1", res.Total, len(res.Logs))
	}

	res, _ = repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	if res.Limit != maxLimit || res.Offset != 0 {
		t.Errorf("limit=%d offset=%d, want clamped", res.Limit, res.Offset)
	}
	if res.Logs[0].EntityID != "" {
		t.Errorf("EntityID = %q, want empty", res.Logs[0].EntityID)
	}
}

type memRepo struct {
	logs []AuditLog
	err  error
}

func (m *memRepo) Create(_ context.Context, log *AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{Logs: m.logs, Total: len(m.logs)}, nil
}

type warnCounter struct{ n int }

func (w *warnCounter) Warn(string, ...any) { w.n++ }

func TestRecorder_Events(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, nil)
	a := agent.Agent{MAC: "AA:BB:CC:DD:EE:01", Name: "kitchen_1", IP: "10.0.0.1"}

	rec.AgentRegistered(a, true)
	rec.AgentRefreshed(a)
	rec.AgentProbed(a, nil)
	rec.AgentProbed(a, errors.New("timeout"))
	rec.AgentReset(a, nil)
	rec.AgentRenamed(a, "kitchen")

	want := []string{ActionRegister, ActionRefresh, ActionProbe, ActionReset, ActionRename}
	if len(repo.logs) != len(want) {
		t.Fatalf("recorded %d logs, want %d", len(repo.logs), len(want))
	}
	for i, action := range want {
		if repo.logs[i].Action != action {
			t.Errorf("logs[%d].Action = %q, want %q", i, repo.logs[i].Action, action)
		}
		if repo.logs[i].EntityID != a.MAC || repo.logs[i].EntityType != EntityAgent {
			t.Errorf("logs[%d] entity = %s/%s", i, repo.logs[i].EntityType, repo.logs[i].EntityID)
		}
	}
	if repo.logs[4].Details["old_name"] != "kitchen" {
		t.Errorf("rename details = %v", repo.logs[4].Details)
	}
}

func TestRecorder_WriteFailureIsLogged(t *testing.T) {
	logger := &warnCounter{}
	rec := NewRecorder(&memRepo{err: errors.New("disk full")}, logger)

	rec.AgentRegistered(agent.Agent{MAC: "AA"}, true)
	if logger.n != 1 {
		t.Errorf("warnings = %d, want 1", logger.n)
	}
}

func TestRecorder_WithRegistry(t *testing.T) {
	repo := newTestRepo(t)
	reg := agent.NewRegistry(agent.Options{Observer: NewRecorder(repo, nil)})
	ctx := context.Background()

	if _, err := reg.Add(ctx, []byte(`{"name":"kitchen","MAC":"AA:BB:CC:DD:EE:01","ip":"10.0.0.1"}`)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := reg.Refresh(ctx, []byte(`{"MAC":"AA:BB:CC:DD:EE:01","custom":"x"}`)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{EntityID: "AA:BB:CC:DD:EE:01"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
}
