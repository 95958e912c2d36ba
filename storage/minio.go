package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio talks to any S3-compatible object store.
type Minio struct {
	client *minio.Client
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

func NewMinio(opts MinioOptions) (*Minio, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}
	return &Minio{client: client}, nil
}

func (m *Minio) Fetch(ctx context.Context, bucket, name, localPath string) error {
	err := m.client.FGetObject(ctx, bucket, name, localPath, minio.GetObjectOptions{})
	if err != nil {
		return translate(err, bucket, name)
	}
	log.Infof("s3://%s/%s downloaded to %s", bucket, name, localPath)
	return nil
}

func (m *Minio) Publish(ctx context.Context, bucket, name, localPath string) error {
	_, err := m.client.FPutObject(ctx, bucket, name, localPath, minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("upload %s to s3://%s/%s: %w", localPath, bucket, name, err)
	}
	log.Infof("%s uploaded to s3://%s/%s", localPath, bucket, name)
	return nil
}

// MakePublic grants anonymous read on a single object by copying it onto
// itself with a public-read canned ACL.
func (m *Minio) MakePublic(ctx context.Context, bucket, name string) error {
	info, err := m.client.StatObject(ctx, bucket, name, minio.StatObjectOptions{})
	if err != nil {
		return translate(err, bucket, name)
	}

	meta := map[string]string{"x-amz-acl": "public-read"}
	if info.ContentType != "" {
		meta["Content-Type"] = info.ContentType
	}
	_, err = m.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          bucket,
			Object:          name,
			ReplaceMetadata: true,
			UserMetadata:    meta,
		},
		minio.CopySrcOptions{Bucket: bucket, Object: name},
	)
	if err != nil {
		return fmt.Errorf("make s3://%s/%s public: %w", bucket, name, err)
	}
	log.Infof("s3://%s/%s is now public", bucket, name)
	return nil
}

func translate(err error, bucket, name string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("s3://%s/%s: %w", bucket, name, ErrObjectNotFound)
	}
	return fmt.Errorf("s3://%s/%s: %w", bucket, name, err)
}
