package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

// Extractor turns document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// PDFBackend is satisfied by gcp.DocumentAI.
type PDFBackend interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Eligible reports whether a content type is text-bearing. Images, archives
// and octet-stream never reach an extractor.
func Eligible(contentType string) bool {
	mt := mediaType(contentType)
	switch {
	case strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/json", mt == "application/xml", mt == "application/pdf":
		return true
	default:
		return false
	}
}

type router struct {
	log *logger.Logger
	pdf PDFBackend
}

// New returns an Extractor that decodes text formats inline and sends PDFs to
// backend, or to the local PDF reader when backend is nil.
func New(log *logger.Logger, backend PDFBackend) Extractor {
	return &router{log: log.With("service", "Extractor"), pdf: backend}
}

func (r *router) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mt := mediaType(contentType)
	if !Eligible(mt) {
		return "", fmt.Errorf("%w: content type %q is not text-bearing", domainerrs.ErrExtraction, contentType)
	}
	if len(data) == 0 {
		return "", nil
	}

	if mt == "application/pdf" {
		if !isPDF(data) {
			return "", fmt.Errorf("%w: file claims pdf but has no %%PDF header", domainerrs.ErrExtraction)
		}
		if r.pdf != nil {
			return r.pdf.ExtractText(ctx, data, mt)
		}
		return extractPDF(data)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s content is not valid UTF-8", domainerrs.ErrExtraction, mt)
	}
	s := strings.TrimPrefix(string(data), "\ufeff")
	switch mt {
	case "text/html":
		return extractHTML(s), nil
	case "application/xml", "text/xml":
		return extractXMLText(s), nil
	default:
		return strings.TrimSpace(s), nil
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mt)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: pdf reader: %v", domainerrs.ErrExtraction, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: pdf plaintext: %v", domainerrs.ErrExtraction, err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: pdf read: %v", domainerrs.ErrExtraction, err)
	}
	return collapseWhitespace(string(b)), nil
}

var tagRE = regexp.MustCompile(`(?s)<[^>]*>`)

func extractHTML(s string) string {
	s = tagRE.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return collapseWhitespace(s)
}

func extractXMLText(s string) string {
	return collapseWhitespace(tagRE.ReplaceAllString(s, " "))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
