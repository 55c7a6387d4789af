package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

func TestAlertRepoLiveDedupIndex(t *testing.T) {
	db := testutil.SQLiteDB(t)
	repo := NewAlertRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	a := &types.Alert{UserID: "u1", Type: "gate_change", Title: "Gate changed", Priority: 4, DedupKey: "BK1"}
	if err := repo.Create(dbc, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &types.Alert{UserID: "u1", Type: "gate_change", Title: "Gate changed again", Priority: 4, DedupKey: "BK1"}
	if err := repo.Create(dbc, dup); !errors.Is(err, domainerrs.ErrConflict) {
		t.Fatalf("duplicate live alert: want ErrConflict got=%v", err)
	}

	ok, err := repo.Dismiss(dbc, "u1", a.ID, time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("Dismiss: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Dismiss(dbc, "u1", a.ID, time.Now().UTC())
	if err != nil || ok {
		t.Fatalf("second Dismiss: ok=%v err=%v", ok, err)
	}

	again := &types.Alert{UserID: "u1", Type: "gate_change", Title: "Gate changed", Priority: 4, DedupKey: "BK1"}
	if err := repo.Create(dbc, again); err != nil {
		t.Fatalf("create after dismiss: %v", err)
	}
}

func TestAlertRepoListLiveOrderingAndOwnership(t *testing.T) {
	db := testutil.SQLiteDB(t)
	repo := NewAlertRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	first := &types.Alert{UserID: "u1", Type: "custom", Title: "first", Priority: 1, DedupKey: "a"}
	second := &types.Alert{UserID: "u1", Type: "custom", Title: "second", Priority: 1, DedupKey: "b"}
	other := &types.Alert{UserID: "u2", Type: "custom", Title: "other", Priority: 1, DedupKey: "a"}
	for _, a := range []*types.Alert{first, second, other} {
		if err := repo.Create(dbc, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	live, err := repo.ListLive(dbc, "u1")
	if err != nil {
		t.Fatalf("ListLive: %v", err)
	}
	if len(live) != 2 || live[0].Title != "second" || live[1].Title != "first" {
		t.Fatalf("unexpected order: %+v", live)
	}

	got, err := repo.GetByID(dbc, "u2", first.ID)
	if err != nil || got != nil {
		t.Fatalf("cross-user GetByID must miss: got=%v err=%v", got, err)
	}
}
