package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
)

const maxTranslateRunes = 5000

type TranslationService interface {
	Translate(ctx context.Context, in TranslateInput) (*providers.Translation, error)
}

type TranslateInput struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
}

type translationService struct {
	log        *logger.Logger
	translator providers.Translator
}

func NewTranslationService(baseLog *logger.Logger, translator providers.Translator) TranslationService {
	return &translationService{log: baseLog.With("service", "TranslationService"), translator: translator}
}

func (s *translationService) Translate(ctx context.Context, in TranslateInput) (*providers.Translation, error) {
	text := strings.TrimSpace(in.Text)
	target := strings.ToLower(strings.TrimSpace(in.TargetLanguage))
	if text == "" || target == "" {
		return nil, validationf("text and target_language are required")
	}
	if utf8.RuneCountInString(text) > maxTranslateRunes {
		return nil, validationf("text is limited to %d characters", maxTranslateRunes)
	}
	return s.translator.Translate(ctx, text, strings.ToLower(strings.TrimSpace(in.SourceLanguage)), target)
}
