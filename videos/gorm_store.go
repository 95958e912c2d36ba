package videos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore keeps video records in a SQL table through gorm. Claims are
// serialised by running them in a transaction; the database package opens
// sqlite with a single connection so transactions never interleave.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the videos table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Video{})
}

func (s *GormStore) Get(ctx context.Context, id string) (Video, error) {
	var v Video
	err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Video{}, ErrNotFound
	}
	if err != nil {
		return Video{}, fmt.Errorf("get video %s: %w", id, err)
	}
	return v, nil
}

func (s *GormStore) Claim(ctx context.Context, id, ownerID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v Video
		err := tx.First(&v, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&Video{ID: id, OwnerID: ownerID, Status: StatusProcessing}).Error
		}
		if err != nil {
			return err
		}
		if !v.IsNew() {
			return ErrAlreadyClaimed
		}

		result := tx.Model(&Video{}).
			Where("id = ? AND (status = ? OR status IS NULL)", id, StatusUnset).
			Updates(map[string]interface{}{"owner_id": ownerID, "status": StatusProcessing})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}
		return nil
	})

	switch {
	case err == nil:
		log.Debugln("video", id, "status ->", StatusProcessing)
		return nil
	case errors.Is(err, ErrAlreadyClaimed), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyClaimed
	default:
		return fmt.Errorf("claim video %s: %w", id, err)
	}
}

func (s *GormStore) Merge(ctx context.Context, id string, p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cols := p.Columns()
	if len(cols) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(cols))
	for k, v := range cols {
		updates[k] = v
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Video{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		v := Video{ID: id}
		p.Apply(&v)
		return tx.Create(&v).Error
	})
	if err != nil {
		return fmt.Errorf("merge video %s: %w", id, err)
	}
	log.Debugf("video %s merged %v", id, cols)
	return nil
}
