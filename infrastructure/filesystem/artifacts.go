package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LocalArtifacts writes run artifacts under a base directory.
type LocalArtifacts struct {
	Dir string
}

func (l LocalArtifacts) WriteArtifact(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir %s: %w", l.Dir, err)
	}
	path := filepath.Join(l.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return nil
}

// ListArtifacts returns the names of every artifact under the base
// directory. A missing directory means no run has written yet.
func (l LocalArtifacts) ListArtifacts(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact dir %s: %w", l.Dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// S3Artifacts mirrors run artifacts to an S3 bucket.
type S3Artifacts struct {
	Bucket string
	client *s3.Client
}

func NewS3Artifacts(ctx context.Context, bucket string) (*S3Artifacts, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &S3Artifacts{Bucket: bucket, client: s3.NewFromConfig(cfg)}, nil
}

func (a *S3Artifacts) WriteArtifact(ctx context.Context, name string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s to bucket %s: %w", name, a.Bucket, err)
	}
	return nil
}

// ListArtifacts returns every artifact key in the bucket.
func (a *S3Artifacts) ListArtifacts(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.Bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", a.Bucket, err)
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	return keys, nil
}
