package helpers

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// ReceiptArchive stores receipts in an S3 bucket.
type ReceiptArchive struct {
	Uploader *s3manager.Uploader
	Bucket   string
	Prefix   string
}

func NewReceiptArchive(sess *session.Session, bucket, prefix string) *ReceiptArchive {
	return &ReceiptArchive{
		Uploader: s3manager.NewUploader(sess),
		Bucket:   bucket,
		Prefix:   prefix,
	}
}

func (a *ReceiptArchive) key(name string) string {
	if a.Prefix == "" {
		return name
	}
	return a.Prefix + "/" + name
}

// AddFile uploads body under name and returns its location.
func (a *ReceiptArchive) AddFile(ctx context.Context, body []byte, name, contentType string) (string, error) {
	result, err := a.Uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(a.key(name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed uploading %s", name)
	}
	return result.Location, nil
}
