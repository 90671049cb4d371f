package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/brightpath-housing/intake/internal/models"
)

// Categorization is keyword-heuristic, so the confidence recorded on every
// asset is a fixed constant rather than a model score.
const categorizationConfidence = 0.75

// BlobStore is the durable object store. Put must never overwrite an
// existing path.
type BlobStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
}

// AssetStore persists FileAsset metadata records.
type AssetStore interface {
	InsertAsset(ctx context.Context, asset models.FileAsset) (string, error)
	HasAssetForPath(ctx context.Context, storagePath string) (bool, error)
}

// FilePipeline downloads every file attached to a submission, categorizes
// it, uploads it to blob storage and indexes it. Every file is independent:
// one failed download or upload never aborts the submission.
type FilePipeline struct {
	httpClient *http.Client
	blob       BlobStore
	assets     AssetStore
	workers    int
	now        func() time.Time
}

// NewFilePipeline builds a pipeline. httpClient may be nil, in which case a
// client with a 30s timeout is used. workers bounds per-submission transfer
// parallelism.
func NewFilePipeline(httpClient *http.Client, blob BlobStore, assets AssetStore, workers int) *FilePipeline {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if workers < 1 {
		workers = 1
	}
	return &FilePipeline{
		httpClient: httpClient,
		blob:       blob,
		assets:     assets,
		workers:    workers,
		now:        time.Now,
	}
}

// FileResult counts what happened to one submission's attachments.
type FileResult struct {
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
}

// Process transfers every file referenced by the submission to blob storage
// under the resolved entity and writes a metadata record per success.
// source is "webhook" or "historical_batch".
func (p *FilePipeline) Process(ctx context.Context, sub models.Submission, formType models.EntityType, entityType models.EntityType, entityID, source string) FileResult {
	urls := sub.Answers.FileURLs()
	if len(urls) == 0 {
		return FileResult{}
	}
	logCtx := slog.With("submissionId", sub.SubmissionID, "formId", sub.FormID, "entityId", entityID)

	outcomes := make([]bool, len(urls))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i, fileURL := range urls {
		eg.Go(func() error {
			if err := p.transfer(gctx, sub, formType, entityType, entityID, source, fileURL); err != nil {
				logCtx.Error("File transfer failed, continuing with next file.", "url", fileURL, "error", err)
				return nil
			}
			outcomes[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	var res FileResult
	for _, ok := range outcomes {
		if ok {
			res.Uploaded++
		} else {
			res.Failed++
		}
	}
	logCtx.Info("File pipeline finished.", "uploaded", res.Uploaded, "failed", res.Failed)
	return res
}

// transfer moves one file end to end: download, categorize, upload, index.
func (p *FilePipeline) transfer(ctx context.Context, sub models.Submission, formType, entityType models.EntityType, entityID, source, fileURL string) error {
	data, mimeType, err := p.download(ctx, fileURL)
	if err != nil {
		return err
	}

	filename := filenameFromURL(fileURL)
	category := Categorize(filename, formType)
	storagePath := fmt.Sprintf("%s/%s/%s/%d_%s",
		entityType, entityID, category, p.now().UnixMilli(), sanitizeFilename(filename))

	if err := p.blob.Put(ctx, storagePath, data, mimeType); err != nil {
		return &StorageError{Op: "upload", Path: storagePath, Err: err}
	}

	asset := models.FileAsset{
		SourceURL:                fileURL,
		Filename:                 filename,
		ByteSize:                 int64(len(data)),
		MimeType:                 mimeType,
		Category:                 category,
		StoragePath:              storagePath,
		EntityType:               string(entityType),
		EntityID:                 entityID,
		SourceSubmissionID:       sub.SubmissionID,
		SourceFormID:             sub.FormID,
		CategorizationConfidence: categorizationConfidence,
		Processed:                true,
		Source:                   source,
		CreatedAt:                p.now().UTC(),
	}
	if strings.Contains(mimeType, "pdf") {
		asset.PageCount = pdfPageCount(data)
	}
	if _, err := p.assets.InsertAsset(ctx, asset); err != nil {
		return &StorageError{Op: "index", Path: storagePath, Err: err}
	}
	return nil
}

// download fetches one file and reports its content type.
func (p *FilePipeline) download(ctx context.Context, fileURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid file url %s: %w", fileURL, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download of %s failed: %w", fileURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download of %s returned status %d", fileURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 100<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body of %s: %w", fileURL, err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return data, mimeType, nil
}

// pdfPageCount is a best-effort metadata enrichment; a malformed PDF just
// yields zero.
func pdfPageCount(data []byte) int {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), cfg)
	if err != nil {
		return 0
	}
	return n
}

// categoryKeywords are checked in order against the lowercased filename.
// keywords match as substrings; tokens must appear as a whole word between
// separators, which keeps short ones like "id" from firing inside
// "holiday" or "video".
var categoryKeywords = []struct {
	category string
	keywords []string
	tokens   []string
}{
	{"lease_agreement", []string{"lease", "rental"}, nil},
	{"ndis_plan", []string{"ndis"}, nil},
	{"participant_id", []string{"identification", "licence", "license", "passport"}, []string{"id"}},
	{"income_proof", []string{"income", "payslip", "bank"}, nil},
	{"compliance_certificate", []string{"compliance", "certificate"}, nil},
	{"property_photo", []string{"photo", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic"}, nil},
	{"floor_plan", []string{"floor", "plan"}, nil},
}

// Categorize assigns a document category. Landlord and investor forms are
// single-purpose, so their type decides the category outright; everything
// else falls back to filename keyword families.
func Categorize(filename string, formType models.EntityType) string {
	switch formType {
	case models.EntityLandlord:
		return "lease_agreement"
	case models.EntityInvestor:
		return "income_proof"
	}
	lower := strings.ToLower(filename)
	tokens := filenameTokens(lower)
	for _, family := range categoryKeywords {
		for _, kw := range family.keywords {
			if strings.Contains(lower, kw) {
				return family.category
			}
		}
		for _, tok := range family.tokens {
			if tokens[tok] {
				return family.category
			}
		}
	}
	return "other"
}

// filenameTokens splits a lowercased filename on every non-alphanumeric
// separator.
func filenameTokens(lower string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.FieldsFunc(lower, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}) {
		tokens[t] = true
	}
	return tokens
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename keeps path segments storage-safe and human readable.
func sanitizeFilename(filename string) string {
	clean := unsafePathChars.ReplaceAllString(filename, "_")
	clean = strings.Trim(clean, "._")
	if clean == "" {
		return "file"
	}
	return clean
}

// filenameFromURL extracts the final path segment of a file URL.
func filenameFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "file"
	}
	name := path.Base(u.Path)
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name
}
