package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3Store].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Config holds the connection settings for an S3-compatible service.
// Empty credential fields fall back to the standard AWS_* environment
// variables.
type S3Config struct {
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
}

func (c S3Config) withEnv() S3Config {
	env := func(v *string, keys ...string) {
		for _, k := range keys {
			if *v != "" {
				return
			}
			*v = os.Getenv(k)
		}
	}
	env(&c.Region, "AWS_REGION", "AWS_DEFAULT_REGION")
	env(&c.Endpoint, "AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL")
	env(&c.AccessKeyID, "AWS_ACCESS_KEY_ID")
	env(&c.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	return c
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(cfg S3Config) *s3.Client {
	cfg = cfg.withEnv()
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "pcmogg",
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	return s3.New(opts)
}

// S3Store implements FileStore backed by Amazon S3 or any S3-compatible
// object store (MinIO, R2, etc.).
//
// All storage paths are mapped to S3 keys under an optional prefix.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed FileStore.
// Prefix is prepended to all object keys; pass "" for no prefix.
func NewS3(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Read opens the named object for reading via GetObject.
// Returns an error wrapping os.ErrNotExist if the key does not exist.
func (s *S3Store) Read(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("storage: read s3://%s/%s: %w", s.bucket, s.key(name), os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// Write returns a writer that streams data to S3 via PutObject, tagged
// with the content type for the file extension.
//
// A background goroutine performs the upload, reading from an [io.Pipe].
// Close blocks until the upload finishes and returns any S3 error.
func (s *S3Store) Write(ctx context.Context, name string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &s3Writer{pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, w.uploadErr = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(name)),
			Body:        pr,
			ContentType: aws.String(ContentType(name)),
		})
		// Unblock pending writes if the upload failed early.
		pr.CloseWithError(w.uploadErr)
	}()
	return w, nil
}

// Delete removes the named object via DeleteObject, which already succeeds
// for missing keys.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// Exists checks whether the named object exists via HeadObject.
func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// s3Writer streams data to a background PutObject call through an io.Pipe.
type s3Writer struct {
	pw        *io.PipeWriter
	done      chan struct{}
	uploadErr error
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close signals EOF to the uploader and waits for PutObject to return.
func (w *s3Writer) Close() error {
	w.pw.Close()
	<-w.done
	return w.uploadErr
}

// Abort fails the upload so no object is created.
func (w *s3Writer) Abort() error {
	w.pw.CloseWithError(ErrAborted)
	<-w.done
	return nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

var _ FileStore = (*S3Store)(nil)
