package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local keeps each bucket as a directory under Root. It is meant for
// development and single-host deployments.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) objectPath(bucket, name string) string {
	return filepath.Join(l.Root, bucket, name)
}

func (l *Local) Fetch(ctx context.Context, bucket, name, localPath string) error {
	if err := copyFile(ctx, l.objectPath(bucket, name), localPath, 0o644); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return err
	}
	log.Infof("%s/%s downloaded to %s", bucket, name, localPath)
	return nil
}

func (l *Local) Publish(ctx context.Context, bucket, name, localPath string) error {
	dst := l.objectPath(bucket, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := copyFile(ctx, localPath, dst, 0o600); err != nil {
		return err
	}
	log.Infof("%s uploaded to %s/%s", localPath, bucket, name)
	return nil
}

// MakePublic makes the object world readable.
func (l *Local) MakePublic(ctx context.Context, bucket, name string) error {
	if err := os.Chmod(l.objectPath(bucket, name), 0o644); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", bucket, name, ErrObjectNotFound)
		}
		return err
	}
	return nil
}

func copyFile(ctx context.Context, src, dst string, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
