package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// Object metadata keys. S3 returns user metadata keys lowercased.
const (
	metaUserID          = "user_id"
	metaOriginalName    = "original_filename"
	metaDocumentType    = "document_type"
	metaUploadTimestamp = "upload_timestamp"
	metaExpiryDate      = "expiry_date"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps travel documents under documents/{user_id}/ in one bucket.
type S3Store struct {
	api     S3API
	bucket  string
	timeout time.Duration
	now     func() time.Time
}

// NewS3Store returns nil when bucket is empty. A non-positive timeout means 8s.
func NewS3Store(api S3API, bucket string, timeout time.Duration) *S3Store {
	if api == nil || bucket == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &S3Store{api: api, bucket: bucket, timeout: timeout, now: time.Now}
}

// Prefix returns the key prefix for a user's documents.
func Prefix(userID string) string {
	return "documents/" + userID + "/"
}

// List returns the metadata of every document stored for userID.
func (s *S3Store) List(ctx context.Context, userID string) ([]models.Document, *apperr.UpstreamError) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs := []models.Document{}
	pager := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(Prefix(userID)),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s.fail("list", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return nil, s.fail("head", err)
			}
			docs = append(docs, documentFromMetadata(key, aws.ToInt64(obj.Size), aws.ToTime(obj.LastModified), head.Metadata))
		}
	}
	return docs, nil
}

func documentFromMetadata(key string, size int64, lastModified time.Time, meta map[string]string) models.Document {
	doc := models.Document{
		Key:          key,
		Filename:     meta[metaOriginalName],
		DocumentType: models.DocumentType(meta[metaDocumentType]),
		Size:         size,
		UploadedAt:   lastModified.UTC(),
	}
	if doc.Filename == "" {
		doc.Filename = path.Base(key)
	}
	if doc.DocumentType == "" {
		doc.DocumentType = Classify(doc.Filename)
	}
	if ts, err := models.ParseTimestamp(meta[metaUploadTimestamp]); err == nil {
		doc.UploadedAt = ts
	}
	if raw := meta[metaExpiryDate]; raw != "" {
		if exp, err := models.ParseTimestamp(raw); err == nil {
			doc.ExpiryDate = &exp
		} else {
			slog.Debug("Ignoring unparseable document expiry", "key", key, "expiry_date", raw)
		}
	}
	return doc
}

// UploadRequest describes a document to store.
type UploadRequest struct {
	UserID      string
	Filename    string
	ContentType string
	Body        io.Reader
	ExpiryDate  *time.Time
}

// Upload stores a document under a random key that keeps the original extension.
func (s *S3Store) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if req.UserID == "" || req.Filename == "" {
		return nil, apperr.Validation("user_id and filename are required")
	}
	ext := "bin"
	if i := strings.LastIndex(req.Filename, "."); i >= 0 && i < len(req.Filename)-1 {
		ext = req.Filename[i+1:]
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now().UTC()
	doc := &models.Document{
		Key:          fmt.Sprintf("%s%s.%s", Prefix(req.UserID), strings.ReplaceAll(uuid.NewString(), "-", ""), ext),
		Filename:     req.Filename,
		DocumentType: Classify(req.Filename),
		UploadedAt:   now,
		ExpiryDate:   req.ExpiryDate,
	}
	meta := map[string]string{
		metaUserID:          req.UserID,
		metaOriginalName:    req.Filename,
		metaDocumentType:    string(doc.DocumentType),
		metaUploadTimestamp: now.Format(time.RFC3339),
	}
	if req.ExpiryDate != nil {
		meta[metaExpiryDate] = req.ExpiryDate.UTC().Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(doc.Key),
		Body:        req.Body,
		ContentType: aws.String(contentType),
		Metadata:    meta,
	}); err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	slog.Info("Document uploaded", "user_id", req.UserID, "key", doc.Key, "document_type", doc.DocumentType)
	return doc, nil
}

func (s *S3Store) fail(op string, err error) *apperr.UpstreamError {
	return &apperr.UpstreamError{Provider: "s3", Op: op, Err: err}
}
