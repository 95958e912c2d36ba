package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Height returns the height of the first video stream of the file at path.
func (t *Transcoder) Height(ctx context.Context, path string) (uint, error) {
	stdout, _, err := t.run(ctx, t.ProbeBinary, "-v", "error", "-select_streams",
		"v:0", "-show_entries", "stream=height", "-of", "csv=p=0", path)
	if err != nil {
		return 0, err
	}

	result, err := strconv.ParseUint(strings.TrimSpace(string(stdout)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe height %q: %w", stdout, err)
	}
	return uint(result), nil
}
