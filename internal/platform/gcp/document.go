package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

var ErrDocumentAINotConfigured = errors.New("documentai: DOCUMENTAI_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID are required")

// DocumentAI extracts the plain text of PDFs with a Document AI OCR processor.
type DocumentAI interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	Close() error
}

type documentAI struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
	timeout   time.Duration
}

func NewDocumentAI(log *logger.Logger) (DocumentAI, error) {
	project := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if project == "" || processorID == "" {
		return nil, ErrDocumentAINotConfigured
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	c, err := documentai.NewDocumentProcessorClient(context.Background(), clientOptions(option.WithEndpoint(endpoint))...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	name := processorName(project, location, processorID, os.Getenv("DOCUMENTAI_PROCESSOR_VERSION"))

	slog := log.With("service", "gcp.DocumentAI")
	slog.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return &documentAI{log: slog, client: c, processor: name, timeout: 2 * time.Minute}, nil
}

func (s *documentAI) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *documentAI) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: mimeType},
		},
		FieldMask: &fieldmaskpb.FieldMask{Paths: []string{"text", "pages.paragraphs"}},
	})
	if err != nil {
		return "", ClassifyDocumentAIError(err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return documentText(resp.Document), nil
}

// ClassifyDocumentAIError maps gRPC failures onto extraction or availability errors.
func ClassifyDocumentAIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return fmt.Errorf("%w: documentai rejected the document: %v", domainerrs.ErrExtraction, err)
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("%w: documentai: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
}

// documentText prefers the flat document text and falls back to the page
// paragraphs for processors that omit it.
func documentText(doc *documentaipb.Document) string {
	if t := collapseWhitespace(doc.GetText()); t != "" {
		return t
	}
	var b strings.Builder
	for _, p := range doc.GetPages() {
		for _, para := range p.GetParagraphs() {
			t := strings.TrimSpace(textFromAnchor(doc.GetText(), para.GetLayout().GetTextAnchor()))
			if t == "" {
				continue
			}
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	return collapseWhitespace(b.String())
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(project, location, processorID, version string) string {
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		strings.TrimSpace(project), strings.TrimSpace(location), strings.TrimSpace(processorID))
	if v := strings.TrimSpace(version); v != "" {
		return base + "/processorVersions/" + v
	}
	return base
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
