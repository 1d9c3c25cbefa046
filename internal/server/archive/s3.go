// Package archive keeps a copy of every receipt image in S3 as evidence for
// the filed expense application.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// PutObjectAPI is the subset of the S3 client used by Archive.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Archive struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

func New(client PutObjectAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket, now: time.Now}
}

// BuildKey returns receipts/<yyyy>/<mm>/<userID>/<id><ext>.
func BuildKey(userID, id, ext string, at time.Time) string {
	return fmt.Sprintf("receipts/%04d/%02d/%s/%s%s", at.Year(), int(at.Month()), userID, id, ext)
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// Store uploads the image and returns its object key.
func (a *Archive) Store(ctx context.Context, userID string, image []byte) (string, error) {
	contentType := http.DetectContentType(image)
	now := a.now().UTC()
	key := BuildKey(userID, ulid.Make().String(), extension(contentType), now)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{"user_id": userID},
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return key, nil
}
