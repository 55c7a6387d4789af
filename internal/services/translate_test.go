package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

func TestTranslateNormalizesLanguages(t *testing.T) {
	svc := NewTranslationService(testutil.Logger(t), &fakeTranslator{})

	out, err := svc.Translate(context.Background(), TranslateInput{Text: "  Good morning ", TargetLanguage: " FR "})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out.TranslatedText != "[fr] Good morning" {
		t.Fatalf("translated: want=%q got=%q", "[fr] Good morning", out.TranslatedText)
	}
	if out.SourceLanguage != "auto" {
		t.Fatalf("source: want=auto got=%s", out.SourceLanguage)
	}
}

func TestTranslateValidation(t *testing.T) {
	svc := NewTranslationService(testutil.Logger(t), &fakeTranslator{})
	ctx := context.Background()

	cases := []TranslateInput{
		{Text: "", TargetLanguage: "es"},
		{Text: "hola", TargetLanguage: ""},
		{Text: strings.Repeat("a", maxTranslateRunes+1), TargetLanguage: "es"},
	}
	for i, in := range cases {
		if _, err := svc.Translate(ctx, in); !errors.Is(err, domainerrs.ErrValidation) {
			t.Fatalf("case %d: want=ErrValidation got=%v", i, err)
		}
	}
}

func TestTranslateProviderFailure(t *testing.T) {
	svc := NewTranslationService(testutil.Logger(t), &fakeTranslator{err: domainerrs.ErrCollaboratorUnavailable})
	_, err := svc.Translate(context.Background(), TranslateInput{Text: "hi", TargetLanguage: "de"})
	if !errors.Is(err, domainerrs.ErrCollaboratorUnavailable) {
		t.Fatalf("want=ErrCollaboratorUnavailable got=%v", err)
	}
}
