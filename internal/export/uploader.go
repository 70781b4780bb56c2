package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"dealtracker/internal/core"
	applog "dealtracker/internal/log"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// Uploader stores exported workbooks in a bucket.
type Uploader struct {
	bucket string
	open   func(ctx context.Context, object string) io.WriteCloser
	now    func() time.Time
	newID  func() string
	logger *applog.Logger
}

// NewGCSUploader uploads through client into bucket. Credentials come from
// the client (Application Default Credentials by default).
func NewGCSUploader(client *storage.Client, bucket string, logger *applog.Logger) *Uploader {
	return newUploader(bucket, func(ctx context.Context, object string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = ContentType
		return w
	}, logger)
}

func newUploader(bucket string, open func(context.Context, string) io.WriteCloser, logger *applog.Logger) *Uploader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Uploader{
		bucket: bucket,
		open:   open,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.WithComponent(applog.ComponentExport),
	}
}

// ObjectName is exports/deals-<date>-<id>.xlsx.
func ObjectName(day core.Date, id string) string {
	return fmt.Sprintf("exports/deals-%s-%s.xlsx", day, id)
}

// Upload writes the workbook read from r and returns its gs:// URI.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	object := ObjectName(core.DateOf(u.now()), u.newID())

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.open(ctx, object)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy workbook to bucket writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", u.bucket, object)
	u.logger.InfoContext(ctx, "Workbook uploaded", applog.FieldOperation, applog.OpUpload, "uri", uri)
	return uri, nil
}
