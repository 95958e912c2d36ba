package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"

	"video-processor/ffmpeg"
	"video-processor/videos"
)

// memStore mirrors the Store contract in memory.
type memStore struct {
	mu       sync.Mutex
	records  map[string]videos.Video
	patches  []videos.Patch
	claimErr error
	mergeErr map[videos.Status]error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]videos.Video{}, mergeErr: map[videos.Status]error{}}
}

func (s *memStore) Claim(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return s.claimErr
	}
	v := s.records[id]
	if !v.IsNew() {
		return videos.ErrAlreadyClaimed
	}
	v.ID = id
	v.OwnerID = ownerID
	v.Status = videos.StatusProcessing
	s.records[id] = v
	return nil
}

func (s *memStore) Merge(ctx context.Context, id string, p videos.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status != nil {
		if err := s.mergeErr[*p.Status]; err != nil {
			return err
		}
	}
	v := s.records[id]
	v.ID = id
	p.Apply(&v)
	s.records[id] = v
	s.patches = append(s.patches, p)
	return nil
}

func (s *memStore) get(id string) videos.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type objectCall struct {
	op, bucket, name string
}

// fakeObjects materialises fetched files so cleanup has something to delete.
type fakeObjects struct {
	mu    sync.Mutex
	calls []objectCall
	errs  map[string]error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{errs: map[string]error{}}
}

func (f *fakeObjects) record(op, bucket, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, objectCall{op, bucket, name})
	return f.errs[op]
}

func (f *fakeObjects) Fetch(ctx context.Context, bucket, name, localPath string) error {
	if err := f.record("fetch", bucket, name); err != nil {
		return err
	}
	return os.WriteFile(localPath, []byte("raw"), 0o644)
}

func (f *fakeObjects) Publish(ctx context.Context, bucket, name, localPath string) error {
	if err := f.record("publish", bucket, name); err != nil {
		return err
	}
	_, err := os.Stat(localPath)
	return err
}

func (f *fakeObjects) MakePublic(ctx context.Context, bucket, name string) error {
	return f.record("make_public", bucket, name)
}

func (f *fakeObjects) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []string
	for _, c := range f.calls {
		ops = append(ops, c.op)
	}
	return ops
}

type fakeTranscoder struct {
	mu    sync.Mutex
	calls int
	res   ffmpeg.Resolution
	err   error
}

func (f *fakeTranscoder) Convert(ctx context.Context, src, dst string, res ffmpeg.Resolution) error {
	f.mu.Lock()
	f.calls++
	f.res = res
	f.mu.Unlock()

	if _, err := os.Stat(src); err != nil {
		return err
	}
	// ffmpeg leaves a partial output behind when it fails
	if err := os.WriteFile(dst, []byte("processed"), 0o644); err != nil {
		return err
	}
	return f.err
}

func (f *fakeTranscoder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errBoom = errors.New("boom")
