package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	for _, s := range []string{"?x360", "?x480", "?x720", "?x1080"} {
		r, err := ParseResolution(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(r))
	}

	_, err := ParseResolution("1920x1080")
	assert.Error(t, err)
	_, err = ParseResolution("")
	assert.Error(t, err)
}

func TestResolutionHeightAndFilter(t *testing.T) {
	assert.Equal(t, uint(720), Res720.Height())
	assert.Equal(t, "scale=-2:720", Res720.ScaleFilter())
	assert.Equal(t, "scale=-2:1080", Res1080.ScaleFilter())
	assert.Equal(t, uint(0), Resolution("bogus").Height())
	assert.Equal(t, Res720, DefaultResolution)
}

func TestAudioBitrate(t *testing.T) {
	assert.Equal(t, uint(96), audioBitrate(360))
	assert.Equal(t, uint(96), audioBitrate(480))
	assert.Equal(t, uint(160), audioBitrate(720))
	assert.Equal(t, uint(160), audioBitrate(1080))
}

func TestConvertArgs(t *testing.T) {
	args := ConvertArgs("in.mp4", "out.mp4", Res720)
	assert.Equal(t, "-y", args[0])
	assert.Equal(t, []string{"-i", "in.mp4"}, args[1:3])
	assert.Contains(t, args, "scale=-2:720")
	assert.Contains(t, args, "160k")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

// fakeBinary writes an executable shell script standing in for ffmpeg/ffprobe.
func fakeBinary(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestConvertSuccess(t *testing.T) {
	// touch the last argument, which is the output path
	ff := fakeBinary(t, "ffmpeg", `for last; do :; done; echo out > "$last"`)
	probe := fakeBinary(t, "ffprobe", `echo 720`)
	dst := filepath.Join(t.TempDir(), "processed-a-1.mp4")

	tr := New(ff, probe)
	require.NoError(t, tr.Convert(context.Background(), "a-1.mp4", dst, Res720))
	assert.FileExists(t, dst)
}

func TestConvertFailure(t *testing.T) {
	ff := fakeBinary(t, "ffmpeg", `echo "moov atom not found" >&2; exit 1`)

	tr := New(ff, "")
	err := tr.Convert(context.Background(), "a-1.mp4", filepath.Join(t.TempDir(), "x.mp4"), Res720)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTranscode))
	assert.Contains(t, err.Error(), "moov atom not found")
}

func TestConvertValidatesInput(t *testing.T) {
	tr := New("", "")
	assert.ErrorIs(t, tr.Convert(context.Background(), "", "out.mp4", Res720), ErrTranscode)
	assert.ErrorIs(t, tr.Convert(context.Background(), "in.mp4", "out.mp4", "?x"), ErrTranscode)
}

func TestVersion(t *testing.T) {
	ff := fakeBinary(t, "ffmpeg", `printf 'ffmpeg version 6.1\nbuilt with gcc\n'`)

	v, err := New(ff, "").Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg version 6.1", v)
}

func TestHeightParseError(t *testing.T) {
	probe := fakeBinary(t, "ffprobe", `echo N/A`)

	_, err := New("", probe).Height(context.Background(), "x.mp4")
	assert.Error(t, err)
}
