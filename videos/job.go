package videos

import (
	"errors"
	"fmt"
	"strings"
)

// ProcessedPrefix is prepended to the raw file name to form the output name.
const ProcessedPrefix = "processed-"

var ErrInvalidName = errors.New("invalid video file name")

// Job identifies one raw upload and the names derived from it. Raw uploads
// are named <ownerId>-<opaque>.<ext>.
type Job struct {
	InputName  string
	OutputName string
	VideoID    string
	OwnerID    string
}

func ParseJob(name string) (Job, error) {
	if name == "" {
		return Job{}, fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return Job{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	id, _, _ := strings.Cut(name, ".")
	if id == "" {
		return Job{}, fmt.Errorf("%w: %q has no id before its extension", ErrInvalidName, name)
	}
	owner, _, _ := strings.Cut(id, "-")

	return Job{
		InputName:  name,
		OutputName: ProcessedPrefix + name,
		VideoID:    id,
		OwnerID:    owner,
	}, nil
}
