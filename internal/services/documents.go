package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/extract"
	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

const (
	defaultDocumentMaxBytes = 25 << 20
	documentURLTTL          = time.Hour
	backupURLTTL            = 24 * time.Hour
	backupFetchConcurrency  = 4
	largeLibraryBytes       = 100 << 20
)

type DocumentService interface {
	Upload(ctx context.Context, userID string, in UploadDocumentInput) (*types.Document, error)
	List(ctx context.Context, userID string) (*DocumentList, error)
	Download(ctx context.Context, userID, key string) (*DocumentDownload, error)
	Delete(ctx context.Context, userID, key string) error
	Scan(ctx context.Context, userID, key string) (*ScanResult, error)
	Organize(ctx context.Context, userID string) (*OrganizeResult, error)
	Backup(ctx context.Context, userID string) (*BackupResult, error)
	Stats(ctx context.Context, userID string) (*DocumentStats, error)
}

type UploadDocumentInput struct {
	Filename     string `json:"filename"`
	FileContent  string `json:"file_content"`
	ContentType  string `json:"content_type"`
	DocumentType string `json:"document_type"`
}

type DocumentList struct {
	Documents []*types.Document            `json:"documents"`
	Grouped   map[string][]*types.Document `json:"grouped_documents"`
	Count     int                          `json:"count"`
	Types     []string                     `json:"types"`
}

type DocumentDownload struct {
	DownloadURL      string          `json:"download_url"`
	ExpiresInSeconds int             `json:"expires_in_seconds"`
	Document         *types.Document `json:"document"`
}

type ScanResult struct {
	ExtractedText string `json:"extracted_text"`
	WordCount     int    `json:"word_count"`
}

type DocumentStats struct {
	TotalDocuments  int            `json:"total_documents"`
	ByType          map[string]int `json:"by_type"`
	ByMonth         map[string]int `json:"by_month"`
	TotalSize       int64          `json:"total_size"`
	TotalSizeHuman  string         `json:"total_size_human"`
	Recommendations []string       `json:"recommendations"`
}

type OrganizeResult struct {
	Stats     DocumentStats      `json:"organization_stats"`
	Documents []*types.Document `json:"documents"`
}

type BackupResult struct {
	Message        string `json:"message"`
	BackupKey      string `json:"backup_key,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
	Documents      int    `json:"documents"`

	// OrphanedObjects counts stored blobs under the user's prefix with no record.
	OrphanedObjects int `json:"orphaned_objects,omitempty"`
}

type DocumentConfig struct {
	MaxBytes int64
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.DocumentRepo
	bucket    gcp.BucketService
	extractor extract.Extractor
	locker    locker.Locker
	policy    *Policy
	cfg       DocumentConfig
	now       func() time.Time
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.DocumentRepo,
	bucket gcp.BucketService,
	extractor extract.Extractor,
	lk locker.Locker,
	policy *Policy,
	cfg DocumentConfig,
) DocumentService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultDocumentMaxBytes
	}
	return &documentService{
		db:        db,
		log:       baseLog.With("service", "DocumentService"),
		repo:      repo,
		bucket:    bucket,
		extractor: extractor,
		locker:    lk,
		policy:    policy,
		cfg:       cfg,
		now:       time.Now,
	}
}

func documentPrefix(userID string) string { return "documents/" + userID + "/" }

func documentKey(userID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(strings.TrimSpace(filename)), "."))
	clean := make([]rune, 0, len(ext))
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			clean = append(clean, r)
		}
	}
	ext = string(clean)
	if ext == "" || len(ext) > 8 {
		ext = "bin"
	}
	return documentPrefix(userID) + strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
}

// decodeContent accepts plain base64 or a data URL.
func decodeContent(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func (s *documentService) Upload(ctx context.Context, userID string, in UploadDocumentInput) (*types.Document, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return nil, validationf("filename is required")
	}
	if strings.TrimSpace(in.FileContent) == "" {
		return nil, validationf("file_content is required")
	}
	if int64(base64.StdEncoding.DecodedLen(len(in.FileContent))) > s.cfg.MaxBytes+3 {
		return nil, validationf("document exceeds %s", humanize.IBytes(uint64(s.cfg.MaxBytes)))
	}
	data, err := decodeContent(in.FileContent)
	if err != nil {
		return nil, validationf("file_content must be base64")
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, validationf("document exceeds %s", humanize.IBytes(uint64(s.cfg.MaxBytes)))
	}

	docType := strings.TrimSpace(in.DocumentType)
	confirmed := docType != ""
	if confirmed && !documents.IsKnownType(docType) {
		return nil, validationf("document_type must be one of %s", strings.Join(documents.Types, ", "))
	}
	if !confirmed {
		docType = s.policy.Classify(filename)
	}
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = gcp.ContentTypeForKey(filename)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now().UTC()
	doc := &types.Document{
		Key:           documentKey(userID, filename),
		UserID:        userID,
		Filename:      filename,
		ContentType:   contentType,
		Size:          int64(len(data)),
		DocumentType:  docType,
		TypeConfirmed: confirmed,
		Tags:          datatypes.JSONSlice[string]{},
		UploadedAt:    now,
	}

	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryDocument, doc.Key, bytes.NewReader(data), contentType); err != nil {
			return fmt.Errorf("%w: store document: %v", domainerrs.ErrCollaboratorUnavailable, err)
		}
		if err := s.repo.Create(dbc, doc); err != nil {
			cleanup := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
			if derr := s.bucket.DeleteFile(cleanup, gcp.BucketCategoryDocument, doc.Key); derr != nil {
				s.log.Warn("failed to remove orphaned blob", "key", doc.Key, "error", derr)
			}
			return fmt.Errorf("record document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncDocumentStage("uploaded")
	s.log.Info("Document uploaded", "user_id", userID, "document_type", docType, "size", doc.Size)
	return doc, nil
}

func (s *documentService) List(ctx context.Context, userID string) (*DocumentList, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	out := &DocumentList{Documents: rows, Grouped: map[string][]*types.Document{}, Count: len(rows), Types: []string{}}
	for _, d := range rows {
		if _, ok := out.Grouped[d.DocumentType]; !ok {
			out.Types = append(out.Types, d.DocumentType)
		}
		out.Grouped[d.DocumentType] = append(out.Grouped[d.DocumentType], d)
	}
	sort.Strings(out.Types)
	return out, nil
}

// owned returns the user's document or ErrNotFound. The prefix check rejects
// foreign keys before touching the store.
func (s *documentService) owned(dbc dbctx.Context, userID, key string) (*types.Document, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validationf("document_key is required")
	}
	if !strings.HasPrefix(key, documentPrefix(userID)) {
		return nil, notFoundf("document not found")
	}
	doc, err := s.repo.GetByKey(dbc, userID, key)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFoundf("document not found")
	}
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, userID, key string) (*DocumentDownload, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.owned(dbctx.Context{Ctx: ctx}, userID, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.bucket.GetObjectAttrs(ctx, gcp.BucketCategoryDocument, doc.Key); err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			s.log.Warn("Document record has no stored object", "user_id", userID, "key", doc.Key)
			return nil, notFoundf("document content not found")
		}
		return nil, fmt.Errorf("%w: stat document: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	url, err := s.bucket.SignedURL(ctx, gcp.BucketCategoryDocument, doc.Key, documentURLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign url: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	return &DocumentDownload{DownloadURL: url, ExpiresInSeconds: int(documentURLTTL.Seconds()), Document: doc}, nil
}

func (s *documentService) Delete(ctx context.Context, userID, key string) error {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return err
	}
	return s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		doc, err := s.owned(dbc, userID, key)
		if err != nil {
			return err
		}
		if err := s.bucket.DeleteFile(dbc, gcp.BucketCategoryDocument, doc.Key); err != nil {
			return fmt.Errorf("%w: delete blob: %v", domainerrs.ErrCollaboratorUnavailable, err)
		}
		if _, err := s.repo.Delete(dbc, userID, doc.Key); err != nil {
			return err
		}
		s.log.Info("Document deleted", "user_id", userID)
		return nil
	})
}

func (s *documentService) Scan(ctx context.Context, userID, key string) (*ScanResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	var out *ScanResult
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		doc, err := s.owned(dbc, userID, key)
		if err != nil {
			return err
		}
		if !extract.Eligible(doc.ContentType) {
			return fmt.Errorf("%w: %s documents cannot be scanned for text", domainerrs.ErrExtraction, doc.ContentType)
		}
		data, err := s.readBlob(ctx, doc.Key)
		if err != nil {
			return err
		}
		text, err := s.extractor.Extract(ctx, data, doc.ContentType)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		now := s.now().UTC()
		words := extract.WordCount(text)
		if err := s.repo.UpdateFields(dbc, userID, doc.Key, map[string]any{
			"extracted_text": text,
			"word_count":     words,
			"scanned":        true,
			"scanned_at":     now,
		}); err != nil {
			return err
		}
		out = &ScanResult{ExtractedText: text, WordCount: words}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncDocumentStage("scanned")
	return out, nil
}

func (s *documentService) readBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryDocument, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read document: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, s.cfg.MaxBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read document: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	return data, nil
}

func (s *documentService) Organize(ctx context.Context, userID string) (*OrganizeResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	var out *OrganizeResult
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(dbc dbctx.Context) error {
			rows, err := s.repo.ListByUser(dbc, userID)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			for _, d := range rows {
				if !d.TypeConfirmed {
					d.DocumentType = s.policy.Classify(d.Filename)
				}
				d.Tags = datatypes.JSONSlice[string](s.policy.TagsFor(d.Filename))
				updates := map[string]any{
					"document_type": d.DocumentType,
					"tags":          d.Tags,
					"organized":     true,
				}
				if d.OrganizedAt == nil {
					at := now
					d.OrganizedAt = &at
					updates["organized_at"] = now
				}
				d.Organized = true
				if err := s.repo.UpdateFields(dbc, userID, d.Key, updates); err != nil {
					return err
				}
			}
			out = &OrganizeResult{Stats: s.computeStats(rows), Documents: rows}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncDocumentStage("organized")
	return out, nil
}

func (s *documentService) Stats(ctx context.Context, userID string) (*DocumentStats, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	st := s.computeStats(rows)
	return &st, nil
}

func (s *documentService) computeStats(rows []*types.Document) DocumentStats {
	st := DocumentStats{
		TotalDocuments:  len(rows),
		ByType:          map[string]int{},
		ByMonth:         map[string]int{},
		Recommendations: []string{},
	}
	for _, d := range rows {
		st.ByType[d.DocumentType]++
		st.ByMonth[d.UploadedAt.UTC().Format("2006-01")]++
		st.TotalSize += d.Size
	}
	st.TotalSizeHuman = humanize.IBytes(uint64(st.TotalSize))
	if st.ByType[documents.TypeOther] > 5 {
		st.Recommendations = append(st.Recommendations, "Consider categorizing your 'other' documents with more specific types")
	}
	if st.ByType[documents.TypeIdentification] > 0 {
		st.Recommendations = append(st.Recommendations, "Make sure your identification documents are up to date")
	}
	if st.TotalSize > largeLibraryBytes {
		st.Recommendations = append(st.Recommendations, "Consider creating backups of your documents")
	}
	if len(st.ByMonth) > 6 {
		st.Recommendations = append(st.Recommendations, "You might want to archive older documents to keep your active documents organized")
	}
	return st
}

type backupManifestEntry struct {
	Key          string    `json:"key"`
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func (s *documentService) Backup(ctx context.Context, userID string) (*BackupResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	var out *BackupResult
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		rows, err := s.repo.ListByUser(dbc, userID)
		if err != nil {
			return err
		}
		orphans := s.countOrphans(ctx, userID, rows)
		if len(rows) == 0 {
			out = &BackupResult{Message: "No documents to back up", Documents: 0, OrphanedObjects: orphans}
			return nil
		}

		blobs := make([][]byte, len(rows))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(backupFetchConcurrency)
		for i, d := range rows {
			g.Go(func() error {
				b, err := s.readBlob(gctx, d.Key)
				if err != nil {
					return fmt.Errorf("backup %s: %w", d.Filename, err)
				}
				blobs[i] = b
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		now := s.now().UTC()
		backupKey := fmt.Sprintf("backups/%s/backup_%d.zip", userID, now.Unix())
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(writeBackupZip(pw, rows, blobs))
		}()
		if err := s.bucket.UploadFile(dbc, gcp.BucketCategoryExport, backupKey, pr, "application/zip"); err != nil {
			_ = pr.CloseWithError(err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: store backup: %v", domainerrs.ErrCollaboratorUnavailable, err)
		}

		keys := make([]string, len(rows))
		for i, d := range rows {
			keys[i] = d.Key
		}
		if _, err := s.repo.MarkBackedUp(dbc, userID, keys, now); err != nil {
			return err
		}
		url, err := s.bucket.SignedURL(ctx, gcp.BucketCategoryExport, backupKey, backupURLTTL)
		if err != nil {
			return fmt.Errorf("%w: sign url: %v", domainerrs.ErrCollaboratorUnavailable, err)
		}
		out = &BackupResult{
			Message:         "Backup created successfully",
			BackupKey:       backupKey,
			DownloadURL:     url,
			ExpiresInHours:  int(backupURLTTL.Hours()),
			Documents:       len(rows),
			OrphanedObjects: orphans,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncDocumentStage("backed_up")
	s.log.Info("Backup created", "user_id", userID, "documents", out.Documents)
	return out, nil
}

// backupEntryName returns a unique archive path for a document. Names that
// resolve to no file fall back to "document".
func backupEntryName(docType, filename string, taken map[string]bool) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		base = "document"
	}
	if !documents.IsKnownType(docType) {
		docType = documents.TypeOther
	}
	name := path.Join(docType, base)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; taken[name]; n++ {
		name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	taken[name] = true
	return name
}

// countOrphans reports blobs under the user's prefix that no record points at.
// Listing failures are logged and count as zero.
func (s *documentService) countOrphans(ctx context.Context, userID string, rows []*types.Document) int {
	keys, err := s.bucket.ListKeys(ctx, gcp.BucketCategoryDocument, documentPrefix(userID))
	if err != nil {
		s.log.Warn("failed to list stored documents", "user_id", userID, "error", err)
		return 0
	}
	known := make(map[string]struct{}, len(rows))
	for _, d := range rows {
		known[d.Key] = struct{}{}
	}
	n := 0
	for _, k := range keys {
		if _, ok := known[k]; !ok {
			n++
		}
	}
	if n > 0 {
		s.log.Warn("Orphaned document blobs", "user_id", userID, "count", n)
	}
	return n
}

// writeBackupZip lays documents out as {document_type}/{filename} plus a manifest.
func writeBackupZip(w io.Writer, rows []*types.Document, blobs [][]byte) error {
	zw := zip.NewWriter(w)
	taken := map[string]bool{}
	manifest := make([]backupManifestEntry, 0, len(rows))
	for i, d := range rows {
		name := backupEntryName(d.DocumentType, d.Filename, taken)
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: d.UploadedAt})
		if err != nil {
			return err
		}
		if _, err := fw.Write(blobs[i]); err != nil {
			return err
		}
		manifest = append(manifest, backupManifestEntry{
			Key: d.Key, Path: name, Filename: d.Filename, DocumentType: d.DocumentType, Size: d.Size, UploadedAt: d.UploadedAt,
		})
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return err
	}
	return zw.Close()
}
