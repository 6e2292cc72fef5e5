package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

type fakeS3 struct {
	objects  map[string]map[string]string
	pages    [][]string
	listErr  error
	headErr  error
	putErr   error
	put      *s3.PutObjectInput
	putBody  string
	prefixes []string
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.prefixes = append(f.prefixes, aws.ToString(in.Prefix))

	page := 0
	if in.ContinuationToken != nil {
		page = 1
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(1024),
			LastModified: aws.Time(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
		})
	}
	if page == 0 && len(f.pages) > 1 {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{Metadata: f.objects[aws.ToString(in.Key)]}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.putBody = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     models.DocumentType
	}{
		{"passport scan.pdf", models.DocIdentification},
		{"Passport_Scan.JPG", models.DocIdentification},
		{"boarding-pass.pdf", models.DocFlight},
		{"hotel reservation.pdf", models.DocAccommodation},
		{"travel-insurance.pdf", models.DocInsurance},
		{"trip-itinerary.docx", models.DocItinerary},
		{"randomfile", models.DocOther},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.filename))
		})
	}
}

func TestS3Store_List(t *testing.T) {
	api := &fakeS3{
		pages: [][]string{
			{"documents/u1/a.pdf"},
			{"documents/u1/b.jpg"},
		},
		objects: map[string]map[string]string{
			"documents/u1/a.pdf": {
				"original_filename": "passport.pdf",
				"document_type":     "identification",
				"upload_timestamp":  "2026-08-01T10:00:00",
				"expiry_date":       "2027-01-31",
			},
			"documents/u1/b.jpg": {},
		},
	}

	docs, uerr := NewS3Store(api, "bucket", 0).List(context.Background(), "u1")
	require.Nil(t, uerr)
	require.Len(t, docs, 2)
	assert.Equal(t, []string{"documents/u1/", "documents/u1/"}, api.prefixes)

	assert.Equal(t, "passport.pdf", docs[0].Filename)
	assert.Equal(t, models.DocIdentification, docs[0].DocumentType)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), docs[0].UploadedAt)
	require.NotNil(t, docs[0].ExpiryDate)
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), *docs[0].ExpiryDate)
	assert.Equal(t, int64(1024), docs[0].Size)

	assert.Equal(t, "b.jpg", docs[1].Filename, "missing metadata falls back to the key")
	assert.Equal(t, models.DocOther, docs[1].DocumentType)
	assert.Nil(t, docs[1].ExpiryDate)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), docs[1].UploadedAt)
}

func TestS3Store_ListErrors(t *testing.T) {
	_, uerr := NewS3Store(&fakeS3{listErr: errors.New("AccessDenied")}, "bucket", 0).List(context.Background(), "u1")
	require.NotNil(t, uerr)
	assert.Equal(t, "list", uerr.Op)

	api := &fakeS3{pages: [][]string{{"documents/u1/a.pdf"}}, headErr: errors.New("NoSuchKey")}
	_, uerr = NewS3Store(api, "bucket", 0).List(context.Background(), "u1")
	require.NotNil(t, uerr)
	assert.Equal(t, "head", uerr.Op)
}

func TestS3Store_Upload(t *testing.T) {
	api := &fakeS3{}
	store := NewS3Store(api, "bucket", 0)
	store.now = func() time.Time { return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC) }
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	doc, err := store.Upload(context.Background(), UploadRequest{
		UserID:     "u1",
		Filename:   "My Passport.pdf",
		Body:       strings.NewReader("%PDF"),
		ExpiryDate: &expiry,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^documents/u1/[0-9a-f]{32}\.pdf$`, doc.Key)
	assert.Equal(t, models.DocIdentification, doc.DocumentType)
	require.NotNil(t, api.put)
	assert.Equal(t, "bucket", aws.ToString(api.put.Bucket))
	assert.Equal(t, "application/octet-stream", aws.ToString(api.put.ContentType))
	assert.Equal(t, "%PDF", api.putBody)
	assert.Equal(t, map[string]string{
		"user_id":           "u1",
		"original_filename": "My Passport.pdf",
		"document_type":     "identification",
		"upload_timestamp":  "2026-10-15T08:30:00Z",
		"expiry_date":       "2027-03-01",
	}, api.put.Metadata)
}

func TestS3Store_UploadValidationAndFailure(t *testing.T) {
	store := NewS3Store(&fakeS3{}, "bucket", 0)
	_, err := store.Upload(context.Background(), UploadRequest{Filename: "x.pdf"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	doc, err := store.Upload(context.Background(), UploadRequest{UserID: "u1", Filename: "noext", Body: strings.NewReader("")})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.Key, ".bin"))

	failing := NewS3Store(&fakeS3{putErr: errors.New("SlowDown")}, "bucket", 0)
	_, err = failing.Upload(context.Background(), UploadRequest{UserID: "u1", Filename: "a.pdf", Body: strings.NewReader("")})
	assert.ErrorContains(t, err, "SlowDown")
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	assert.Nil(t, NewS3Store(&fakeS3{}, "", 0))
}

type fakeLive struct {
	docs []models.Document
	uerr *apperr.UpstreamError
}

func (f *fakeLive) List(ctx context.Context, userID string) ([]models.Document, *apperr.UpstreamError) {
	return f.docs, f.uerr
}

type countingCounter map[string]int

func (c countingCounter) IncrementCustom(name string) { c[name]++ }

func TestAdapter_List(t *testing.T) {
	recorded := []models.Document{{Key: "k1", Filename: "passport.pdf"}}

	t.Run("live", func(t *testing.T) {
		live := &fakeLive{docs: []models.Document{{Key: "s3-key"}}}
		res := NewAdapter(live, nil).List(context.Background(), "u1", recorded)
		assert.Equal(t, "s3", res.Source)
		assert.Equal(t, "s3-key", res.Documents[0].Key)
	})

	t.Run("fallback to recorded", func(t *testing.T) {
		counter := countingCounter{}
		live := &fakeLive{uerr: &apperr.UpstreamError{Provider: "s3", Op: "list", Err: errors.New("timeout")}}
		res := NewAdapter(live, counter).List(context.Background(), "u1", recorded)
		assert.Equal(t, models.SourceMock, res.Source)
		assert.Equal(t, recorded, res.Documents)
		assert.Equal(t, 1, counter["adapter_fallback_documents"])
	})

	t.Run("no storage configured", func(t *testing.T) {
		res := NewAdapter(nil, nil).List(context.Background(), "u1", nil)
		assert.Equal(t, models.SourceMock, res.Source)
		assert.Empty(t, res.Documents)
	})
}
