package videos

import (
	"errors"
	"fmt"
	"time"
)

type Status string

// StatusUnset is the zero value; a record without a status is new.
const (
	StatusUnset      Status = ""
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound       = errors.New("video not found")
	ErrAlreadyClaimed = errors.New("video already processed or processing")
)

// Video is the durable record of one uploaded video.
type Video struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	OwnerID     string    `gorm:"index" json:"ownerId,omitempty"`
	Status      Status    `gorm:"index" json:"status,omitempty"`
	OutputName  string    `json:"outputName,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (v Video) IsNew() bool {
	return v.Status == StatusUnset
}

// Patch is a partial update: nil fields are left untouched by Merge.
type Patch struct {
	OwnerID     *string
	Status      *Status
	OutputName  *string
	Title       *string
	Description *string
	Error       *string
}

func (p Patch) WithOwner(id string) Patch {
	p.OwnerID = &id
	return p
}

func (p Patch) WithStatus(s Status) Patch {
	p.Status = &s
	return p
}

func (p Patch) WithOutputName(name string) Patch {
	p.OutputName = &name
	return p
}

func (p Patch) WithTitle(title string) Patch {
	p.Title = &title
	return p
}

func (p Patch) WithDescription(description string) Patch {
	p.Description = &description
	return p
}

func (p Patch) WithError(msg string) Patch {
	p.Error = &msg
	return p
}

// Validate enforces that an output name is only ever written together with
// the processed status, and that processed always carries one.
func (p Patch) Validate() error {
	if p.Status != nil {
		switch *p.Status {
		case StatusProcessing, StatusProcessed, StatusFailed:
		default:
			return fmt.Errorf("invalid status %q", *p.Status)
		}
	}
	processed := p.Status != nil && *p.Status == StatusProcessed
	if p.OutputName != nil && !processed {
		return errors.New("output name can only be set with status processed")
	}
	if processed && (p.OutputName == nil || *p.OutputName == "") {
		return errors.New("status processed requires an output name")
	}
	return nil
}

// Columns maps every non-nil field to its column (and hash field) name.
func (p Patch) Columns() map[string]string {
	cols := map[string]string{}
	if p.OwnerID != nil {
		cols["owner_id"] = *p.OwnerID
	}
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.OutputName != nil {
		cols["output_name"] = *p.OutputName
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Error != nil {
		cols["error"] = *p.Error
	}
	return cols
}

// Apply writes every non-nil field onto v.
func (p Patch) Apply(v *Video) {
	if p.OwnerID != nil {
		v.OwnerID = *p.OwnerID
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.OutputName != nil {
		v.OutputName = *p.OutputName
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Error != nil {
		v.Error = *p.Error
	}
}
