package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrTranscode wraps every failure reported by the ffmpeg process.
var ErrTranscode = errors.New("transcode failed")

// Transcoder converts local files with an ffmpeg binary.
type Transcoder struct {
	Binary      string
	ProbeBinary string
}

func New(binary, probeBinary string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if probeBinary == "" {
		probeBinary = "ffprobe"
	}
	return &Transcoder{Binary: binary, ProbeBinary: probeBinary}
}

// ConvertArgs returns the ffmpeg arguments used to convert src into dst.
func ConvertArgs(src, dst string, res Resolution) []string {
	return []string{"-y", "-i", src,
		"-vf", res.ScaleFilter(), "-c:v", "libx264",
		"-crf", "23", "-preset", "veryfast",
		"-c:a", "aac", "-b:a", fmt.Sprintf("%dk", audioBitrate(res.Height())),
		"-movflags", "+faststart",
		dst}
}

func (t *Transcoder) Convert(ctx context.Context, src, dst string, res Resolution) error {
	if src == "" || dst == "" {
		return fmt.Errorf("%w: input and output paths are required", ErrTranscode)
	}
	if res.Height() == 0 {
		return fmt.Errorf("%w: invalid resolution %q", ErrTranscode, res)
	}

	log.Debugf("converting video (%s): %s", res, src)
	_, stderr, err := t.run(ctx, t.Binary, ConvertArgs(src, dst, res)...)
	if err != nil {
		return fmt.Errorf("%w: %v: %s", ErrTranscode, err, lastLine(stderr))
	}

	if height, err := t.Height(ctx, dst); err != nil {
		log.Warnf("couldn't probe %s: %v", dst, err)
	} else if height != res.Height() {
		log.Warnf("%s has height %d, wanted %d", dst, height, res.Height())
	}
	log.Infof("video converted successfully: %s", dst)
	return nil
}

// Version returns the first line of `ffmpeg -version`.
func (t *Transcoder) Version(ctx context.Context) (string, error) {
	stdout, _, err := t.run(ctx, t.Binary, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(stdout), "\n")
	return strings.TrimSpace(line), nil
}

// runs the binary with the provided args and returns (stdout, stderr, error)
func (t *Transcoder) run(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	log.Infoln(binary, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err != nil {
		log.Errorf("%s error: %v", binary, err)
		log.Debugln("stderr:", stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

func lastLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
