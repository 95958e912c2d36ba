package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-processor/pipeline"
	"video-processor/videos"
	"video-processor/workspace"
)

type fakeRunner struct {
	out  pipeline.Outcome
	err  error
	jobs []videos.Job
	// ctxErrs holds ctx.Err() as seen by each run
	ctxErrs []error
}

func (f *fakeRunner) Run(ctx context.Context, job videos.Job) (pipeline.Outcome, error) {
	f.jobs = append(f.jobs, job)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.out, f.err
}

type fakeRecords map[string]videos.Video

func (f fakeRecords) Get(ctx context.Context, id string) (videos.Video, error) {
	v, ok := f[id]
	if !ok {
		return videos.Video{}, videos.ErrNotFound
	}
	return v, nil
}

type fakeVersion string

func (f fakeVersion) Version(ctx context.Context) (string, error) {
	return string(f), nil
}

func newServer(t *testing.T, runner *fakeRunner) (*echo.Echo, *Server) {
	t.Helper()
	root := t.TempDir()
	ws := workspace.New(filepath.Join(root, "raw"), filepath.Join(root, "processed"))
	require.NoError(t, ws.Ensure())

	s := &Server{
		Runner:    runner,
		Records:   fakeRecords{"u1-1": {ID: "u1-1", OwnerID: "u1", Status: videos.StatusProcessing}},
		Ffmpeg:    fakeVersion("ffmpeg version 7.1"),
		Workspace: ws,
	}
	e := echo.New()
	s.Register(e)
	return e, s
}

func pushBody(data string) string {
	env := map[string]interface{}{
		"message": map[string]interface{}{
			"data":      data,
			"messageId": "42",
		},
		"subscription": "projects/p/subscriptions/s",
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func post(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/process-video", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProcessVideoPostOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		out      pipeline.Outcome
		err      error
		wantCode int
		wantBody string
	}{
		{"accepted", pipeline.Outcome{Result: pipeline.Accepted}, nil, http.StatusNoContent, ""},
		{"rejected", pipeline.Outcome{Result: pipeline.Rejected}, nil, http.StatusBadRequest,
			"Bad Request: Video already processed or processing"},
		{"failed", pipeline.Outcome{Result: pipeline.Failed, Reason: "transcode failed"}, nil,
			http.StatusInternalServerError, "Internal Server Error: video processing failed"},
		{"store error", pipeline.Outcome{}, errors.New("connection refused"),
			http.StatusInternalServerError, "Internal Server Error: status store unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{out: tc.out, err: tc.err}
			e, _ := newServer(t, runner)

			rec := post(e, pushBody(encode(`{"name":"u1-1700000000.mp4"}`)))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantBody, rec.Body.String())

			require.Len(t, runner.jobs, 1)
			assert.Equal(t, "u1-1700000000", runner.jobs[0].VideoID)
			assert.Equal(t, "processed-u1-1700000000.mp4", runner.jobs[0].OutputName)
		})
	}
}

func TestProcessVideoPostOutlivesClient(t *testing.T) {
	runner := &fakeRunner{out: pipeline.Outcome{Result: pipeline.Accepted}}
	e, _ := newServer(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := pushBody(encode(`{"name":"u1-1700000000.mp4"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/process-video", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, runner.ctxErrs, 1)
	assert.NoError(t, runner.ctxErrs[0])
}

func TestProcessVideoPostMalformed(t *testing.T) {
	cases := map[string]string{
		"empty body":   "",
		"no message":   `{"subscription":"s"}`,
		"not json":     `{"message":`,
		"not base64":   pushBody("%%%"),
		"data no json": pushBody(encode("hello")),
		"no name":      pushBody(encode(`{"bucket":"raw"}`)),
		"bad name":     pushBody(encode(`{"name":"../etc/passwd"}`)),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{}
			e, _ := newServer(t, runner)

			rec := post(e, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Body.String(), "Bad Request: "), rec.Body.String())
			assert.Empty(t, runner.jobs)
		})
	}
}

func TestVideoGet(t *testing.T) {
	e, _ := newServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/videos/u1-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got videos.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, videos.StatusProcessing, got.Status)

	req = httptest.NewRequest(http.MethodGet, "/api/videos/nope", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	e, _ := newServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ffmpeg version 7.1", got["ffmpeg"])
	assert.Equal(t, "0.00", got["used"])
	assert.Contains(t, got, "build")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
