package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

const maxUserIDLen = 128

// NormalizeUserID trims and validates an opaque user identifier. Ids become
// part of object keys, so path separators and control characters are rejected.
func NormalizeUserID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", fmt.Errorf("%w: user_id is required", domainerrs.ErrValidation)
	}
	if len(id) > maxUserIDLen {
		return "", fmt.Errorf("%w: user_id is too long", domainerrs.ErrValidation)
	}
	for _, r := range id {
		if r == '/' || r == '\\' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: user_id contains invalid characters", domainerrs.ErrValidation)
		}
	}
	return id, nil
}

// inTx runs fn inside a transaction bound to ctx.
func inTx(ctx context.Context, db *gorm.DB, fn func(dbc dbctx.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domainerrs.ErrValidation}, args...)...)
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domainerrs.ErrNotFound}, args...)...)
}
