package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolution is a target frame size in "?xH" form: width follows the
// source aspect ratio, height is fixed.
type Resolution string

const (
	Res360  Resolution = "?x360"
	Res480  Resolution = "?x480"
	Res720  Resolution = "?x720"
	Res1080 Resolution = "?x1080"
)

// DefaultResolution is the size every processed video is converted to.
const DefaultResolution = Res720

var resolutions = []Resolution{Res360, Res480, Res720, Res1080}

func ParseResolution(s string) (Resolution, error) {
	for _, r := range resolutions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported resolution %q", s)
}

func (r Resolution) Height() uint {
	h, err := strconv.ParseUint(strings.TrimPrefix(string(r), "?x"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(h)
}

// ScaleFilter keeps the width divisible by two, which libx264 requires.
func (r Resolution) ScaleFilter() string {
	return fmt.Sprintf("scale=-2:%d", r.Height())
}

// audioBitrate picks an AAC bitrate in kbps appropriate for the output height.
func audioBitrate(height uint) uint {
	var kbps uint = 160
	if height <= 144 {
		kbps = 64
	} else if height <= 480 {
		kbps = 96
	} else if height < 720 {
		kbps = 128
	}
	return kbps
}
