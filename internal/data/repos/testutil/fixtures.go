package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/booking"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.User {
	tb.Helper()
	u := &types.User{ID: id, NextMessageSeq: 1}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, filename, docType string, uploadedAt time.Time) *types.Document {
	tb.Helper()
	if docType == "" {
		docType = documents.TypeOther
	}
	d := &types.Document{
		Key:          "documents/" + userID + "/" + uuid.NewString() + ".pdf",
		UserID:       userID,
		Filename:     filename,
		ContentType:  "application/pdf",
		Size:         1024,
		DocumentType: docType,
		UploadedAt:   uploadedAt,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedFlightBooking(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, flightNumber string, departure time.Time) *types.Booking {
	tb.Helper()
	b := &types.Booking{
		ID:           uuid.New(),
		UserID:       userID,
		BookingRef:   "REF-" + flightNumber,
		Type:         booking.TypeFlight,
		Status:       booking.StatusConfirmed,
		FlightNumber: flightNumber,
		DepartureAt:  &departure,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed booking: %v", err)
	}
	return b
}
