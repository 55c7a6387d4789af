package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

func TestTranslateUniqueViolations(t *testing.T) {
	pg := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if err := Translate(pg, "alert"); !errors.Is(err, domainerrs.ErrConflict) {
		t.Fatalf("postgres 23505: want ErrConflict got=%v", err)
	}
	lite := errors.New("UNIQUE constraint failed: alert.user_id, alert.type, alert.dedup_key")
	if err := Translate(lite, "alert"); !errors.Is(err, domainerrs.ErrConflict) {
		t.Fatalf("sqlite unique: want ErrConflict got=%v", err)
	}
	other := errors.New("connection reset")
	if err := Translate(other, "alert"); err != other {
		t.Fatalf("other errors must pass through, got=%v", err)
	}
}
