package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type Translator interface {
	Translate(ctx context.Context, text, source, target string) (*Translation, error)
}

type Translation struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Mock           bool   `json:"mock"`
}

type translator struct {
	llm openai.Client
	log *logger.Logger
}

// NewTranslator uses the language model when llm is non-nil and echoes the
// input otherwise.
func NewTranslator(log *logger.Logger, llm openai.Client) Translator {
	return &translator{llm: llm, log: log.With("provider", "translator")}
}

var translationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"translated_text":          map[string]any{"type": "string"},
		"detected_source_language": map[string]any{"type": "string"},
	},
	"required":             []string{"translated_text", "detected_source_language"},
	"additionalProperties": false,
}

func (t *translator) Translate(ctx context.Context, text, source, target string) (*Translation, error) {
	text = strings.TrimSpace(text)
	target = strings.TrimSpace(target)
	source = strings.TrimSpace(source)
	if text == "" || target == "" {
		return nil, fmt.Errorf("%w: text and target_language are required", domainerrs.ErrValidation)
	}
	if source == "" {
		source = "auto"
	}
	if t.llm == nil {
		observability.Current().IncProviderFallback("translator", "not_configured")
		return t.echo(text, source, target), nil
	}

	system := "You translate text for travelers. Preserve meaning, names and numbers. Reply with the translation only."
	user := fmt.Sprintf("Source language: %s\nTarget language: %s\nText:\n%s", source, target, text)
	obj, err := t.llm.GenerateJSON(ctx, system, user, "translation", translationSchema)
	if err == nil {
		translated, _ := obj["translated_text"].(string)
		if strings.TrimSpace(translated) == "" {
			err = fmt.Errorf("%w: empty translation", domainerrs.ErrGeneration)
		} else {
			detected, _ := obj["detected_source_language"].(string)
			if source == "auto" && detected != "" {
				source = detected
			}
			observability.Current().IncProviderCall("translator", "ok")
			return &Translation{TranslatedText: translated, SourceLanguage: source, TargetLanguage: target}, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	observability.Current().IncProviderCall("translator", "error")
	observability.Current().IncProviderFallback("translator", "error")
	t.log.Warn("translation failed, echoing input", "error", err)
	return t.echo(text, source, target), nil
}

func (t *translator) echo(text, source, target string) *Translation {
	return &Translation{TranslatedText: text, SourceLanguage: source, TargetLanguage: target, Mock: true}
}
