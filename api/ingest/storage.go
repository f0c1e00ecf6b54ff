package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	uploadDefaultBucket = "subseaintel"
	uploadPrefix        = "uploads/"
	uploadDefaultRegion = "eu-north-1"
)

func uploadBucket() string {
	if b := strings.TrimSpace(os.Getenv("SUBSEA_S3_BUCKET")); b != "" {
		return b
	}
	return uploadDefaultBucket
}

func uploadRegion() string {
	if r := strings.TrimSpace(os.Getenv("SUBSEA_S3_REGION")); r != "" {
		return r
	}
	return uploadDefaultRegion
}

// isStorageEnabled reads SUBSEA_S3_ENABLED to decide whether original upload
// files are kept in S3. Defaults to true when unset. When disabled, a job can
// only be processed by the in-process goroutine that still holds the bytes.
func isStorageEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("SUBSEA_S3_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes"
}

func buildUploadKey(fileHash, fileExt string) string {
	ext := strings.TrimSpace(fileExt)
	if ext == "" {
		ext = ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return uploadPrefix + fileHash + ext
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}

// FileStore keeps the original upload bytes in S3 so a deferred worker (the
// cron sweeper) can fetch them after the upload request has returned.
type FileStore struct {
	bucket string
	region string
}

func NewFileStore() *FileStore {
	return &FileStore{bucket: uploadBucket(), region: uploadRegion()}
}

func (fs *FileStore) Bucket() string { return fs.bucket }

func (fs *FileStore) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(fs.region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (fs *FileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	client, err := fs.client(ctx)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(fs.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload to s3 (bucket %s, key %s): %w", fs.bucket, key, err)
	}
	return nil
}

func (fs *FileStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	client, err := fs.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch s3 object (bucket %s, key %s): %w", bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object body: %w", err)
	}
	return data, nil
}
