package chat

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
)

func TestConversationMessageRepoWindowAndExpiry(t *testing.T) {
	db := testutil.SQLiteDB(t)
	repo := NewConversationMessageRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	now := time.Now().UTC()
	var rows []*types.ConversationMessage
	for i := 1; i <= 5; i++ {
		expires := now.Add(24 * time.Hour)
		if i == 1 {
			expires = now.Add(-time.Minute)
		}
		rows = append(rows, &types.ConversationMessage{
			UserID:    "u1",
			Seq:       int64(i),
			Role:      types.RoleUser,
			Text:      "hello",
			CreatedAt: now,
			ExpiresAt: expires,
		})
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recent, err := repo.ListRecent(dbc, "u1", 3, now)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("window: want=3 got=%d", len(recent))
	}
	if recent[0].Seq != 3 || recent[2].Seq != 5 {
		t.Fatalf("order: want 3..5 got %d..%d", recent[0].Seq, recent[2].Seq)
	}

	all, err := repo.ListRecent(dbc, "u1", 20, now)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expired rows must be hidden: want=4 got=%d", len(all))
	}

	deleted, err := repo.DeleteExpired(dbc, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted: want=1 got=%d", deleted)
	}
}
