package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type fakePDF struct {
	calls int
	text  string
	err   error
}

func (f *fakePDF) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestEligible(t *testing.T) {
	yes := []string{"text/plain", "text/csv; charset=utf-8", "application/json", "application/xml", "application/pdf"}
	no := []string{"image/jpeg", "application/zip", "application/octet-stream", ""}
	for _, ct := range yes {
		if !Eligible(ct) {
			t.Fatalf("Eligible(%q): want=true", ct)
		}
	}
	for _, ct := range no {
		if Eligible(ct) {
			t.Fatalf("Eligible(%q): want=false", ct)
		}
	}
}

func TestExtractRejectsImagesWithoutCallingBackend(t *testing.T) {
	backend := &fakePDF{}
	ex := New(logger.Nop(), backend)
	_, err := ex.Extract(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	if !errors.Is(err, domainerrs.ErrExtraction) {
		t.Fatalf("want ErrExtraction got=%v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("backend calls: want=0 got=%d", backend.calls)
	}
}

func TestExtractInlineFormats(t *testing.T) {
	ex := New(logger.Nop(), nil)
	ctx := context.Background()

	got, err := ex.Extract(ctx, []byte("\ufeff  Flight BA117 departs 09:40  \n"), "text/plain; charset=utf-8")
	if err != nil || got != "Flight BA117 departs 09:40" {
		t.Fatalf("plain: got=%q err=%v", got, err)
	}
	got, err = ex.Extract(ctx, []byte("<html><body><p>Hotel&nbsp;Lutetia</p></body></html>"), "text/html")
	if err != nil || got != "Hotel Lutetia" {
		t.Fatalf("html: got=%q err=%v", got, err)
	}
	if _, err := ex.Extract(ctx, []byte{0xff, 0xfe, 0xfd}, "text/plain"); !errors.Is(err, domainerrs.ErrExtraction) {
		t.Fatalf("invalid utf8: want ErrExtraction got=%v", err)
	}
}

func TestExtractPDFRoutesToBackend(t *testing.T) {
	backend := &fakePDF{text: "Passport expires 2026-02-01"}
	ex := New(logger.Nop(), backend)
	got, err := ex.Extract(context.Background(), []byte("%PDF-1.4 ..."), "application/pdf")
	if err != nil || got != backend.text {
		t.Fatalf("pdf: got=%q err=%v", got, err)
	}
	if _, err := ex.Extract(context.Background(), []byte("not a pdf"), "application/pdf"); !errors.Is(err, domainerrs.ErrExtraction) {
		t.Fatalf("bad header: want ErrExtraction got=%v", err)
	}
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(logger.Nop(), nil).Extract(ctx, []byte("x"), "text/plain"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  a b\tc\n"); n != 3 {
		t.Fatalf("WordCount: want=3 got=%d", n)
	}
}
