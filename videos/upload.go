package videos

import (
	"encoding/json"
	"fmt"
)

// Upload is the notification body published when a raw file lands in the
// raw bucket.
type Upload struct {
	Name   string `json:"name"`
	Bucket string `json:"bucket,omitempty"`
}

// DecodeUpload parses an upload notification and derives its Job.
func DecodeUpload(data []byte) (Job, error) {
	var u Upload
	if err := json.Unmarshal(data, &u); err != nil {
		return Job{}, fmt.Errorf("decode upload: %w", err)
	}
	return ParseJob(u.Name)
}
