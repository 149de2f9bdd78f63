package gorm

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/model"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/secrets"
)

var _ secrets.Store = (*Store)(nil)

// Store implements secrets.Store using GORM
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// GetVersionedAndMtime assembles the versioned secret at path from its slots.
func (s *Store) GetVersionedAndMtime(path string) (secrets.VersionedSecret, time.Time, error) {
	var rows []model.SecretVersion
	if err := s.db.Where("path = ?", path).Find(&rows).Error; err != nil {
		return secrets.VersionedSecret{}, time.Time{}, fmt.Errorf("secrets: query %s: %w", path, err)
	}
	if len(rows) == 0 {
		return secrets.VersionedSecret{}, time.Time{}, fmt.Errorf("%w: %s", secrets.ErrNotFound, path)
	}

	var (
		secret secrets.VersionedSecret
		mtime  time.Time
	)
	for _, row := range rows {
		slot, err := secrets.ParseSlot(row.Slot)
		if err != nil {
			return secrets.VersionedSecret{}, time.Time{}, fmt.Errorf("secret %s: %w", path, err)
		}
		secret = secret.With(slot, row.Value)
		if row.UpdatedAt.After(mtime) {
			mtime = row.UpdatedAt
		}
	}
	return secret, mtime, nil
}

// Put writes value into one slot of the secret at path. An empty value
// clears the slot.
func (s *Store) Put(path string, slot secrets.Slot, value string) error {
	row := model.SecretVersion{
		Path:      path,
		Slot:      string(slot),
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("secrets: put %s/%s: %w", path, slot, err)
	}
	return nil
}

// Rotate promotes next to current and current to previous in one
// transaction. The old previous value is discarded.
func (s *Store) Rotate(path string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx, now: s.now}
		secret, _, err := txStore.GetVersionedAndMtime(path)
		if err != nil {
			return err
		}
		if secret.Next == "" {
			return fmt.Errorf("secrets: %s has no next version to promote", path)
		}
		updates := []struct {
			slot  secrets.Slot
			value string
		}{
			{secrets.SlotCurrent, secret.Next},
			{secrets.SlotPrevious, secret.Current},
			{secrets.SlotNext, ""},
		}
		for _, u := range updates {
			if err := txStore.Put(path, u.slot, u.value); err != nil {
				return err
			}
		}
		return nil
	})
}
