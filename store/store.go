// Package store persists the user data vaultctl keeps beside the remote
// inventory: tags, notes, saved searches and loadouts. Items are keyed by
// inventory.ItemKey.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/vaultctl/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the gorm-backed persistence layer.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a Store. The schema must already be migrated.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// NormalizeTag lower-cases and trims a tag. Query matching on tags is exact
// against the lower-cased value, so tags are stored that way.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// ---- Tags ----

// AddTag tags an item. Adding an existing tag is a no-op.
func (s *Store) AddTag(ctx context.Context, itemKey, tag string) error {
	tag = NormalizeTag(tag)
	if itemKey == "" || tag == "" {
		return fmt.Errorf("store: item key and tag are required")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}, {Name: "tag"}},
		DoNothing: true,
	}).Create(&model.ItemTag{ItemKey: itemKey, Tag: tag}).Error
	if err != nil {
		return fmt.Errorf("store: add tag: %w", err)
	}
	return nil
}

// RemoveTag removes a tag from an item, or returns ErrNotFound.
func (s *Store) RemoveTag(ctx context.Context, itemKey, tag string) error {
	res := s.db.WithContext(ctx).
		Where("item_key = ? AND tag = ?", itemKey, NormalizeTag(tag)).
		Delete(&model.ItemTag{})
	if res.Error != nil {
		return fmt.Errorf("store: remove tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Tags returns an item's tags in alphabetical order.
func (s *Store) Tags(ctx context.Context, itemKey string) ([]string, error) {
	var tags []string
	err := s.db.WithContext(ctx).Model(&model.ItemTag{}).
		Where("item_key = ?", itemKey).Order("tag").Pluck("tag", &tags).Error
	if err != nil {
		return nil, fmt.Errorf("store: tags: %w", err)
	}
	return tags, nil
}

// AllTags returns every tagged item's tags, keyed by item key.
func (s *Store) AllTags(ctx context.Context) (map[string][]string, error) {
	var rows []model.ItemTag
	if err := s.db.WithContext(ctx).Order("item_key, tag").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: all tags: %w", err)
	}
	out := make(map[string][]string)
	for _, r := range rows {
		out[r.ItemKey] = append(out[r.ItemKey], r.Tag)
	}
	return out, nil
}

// ---- Notes ----

// SetNote sets an item's note. An empty note deletes it.
func (s *Store) SetNote(ctx context.Context, itemKey, note string) error {
	db := s.db.WithContext(ctx)
	if strings.TrimSpace(note) == "" {
		if err := db.Where("item_key = ?", itemKey).Delete(&model.ItemNote{}).Error; err != nil {
			return fmt.Errorf("store: delete note: %w", err)
		}
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "updated_at"}),
	}).Create(&model.ItemNote{ItemKey: itemKey, Note: note}).Error
	if err != nil {
		return fmt.Errorf("store: set note: %w", err)
	}
	return nil
}

// Note returns an item's note, or ErrNotFound.
func (s *Store) Note(ctx context.Context, itemKey string) (string, error) {
	var n model.ItemNote
	err := s.db.WithContext(ctx).Where("item_key = ?", itemKey).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: note: %w", err)
	}
	return n.Note, nil
}

// ---- Saved searches ----

// SaveSearch stores a query under name, replacing any previous one.
func (s *Store) SaveSearch(ctx context.Context, name, query string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("store: search name is required")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "updated_at"}),
	}).Create(&model.SavedSearch{Name: name, Query: query}).Error
	if err != nil {
		return fmt.Errorf("store: save search: %w", err)
	}
	return nil
}

// Search returns the saved search called name, or ErrNotFound.
func (s *Store) Search(ctx context.Context, name string) (*model.SavedSearch, error) {
	var ss model.SavedSearch
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&ss).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	return &ss, nil
}

// ListSearches returns all saved searches by name.
func (s *Store) ListSearches(ctx context.Context) ([]model.SavedSearch, error) {
	var out []model.SavedSearch
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list searches: %w", err)
	}
	return out, nil
}

// DeleteSearch deletes a saved search, or returns ErrNotFound.
func (s *Store) DeleteSearch(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&model.SavedSearch{})
	if res.Error != nil {
		return fmt.Errorf("store: delete search: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- Loadouts ----

// SaveLoadout stores lo, replacing any loadout with the same name.
func (s *Store) SaveLoadout(ctx context.Context, lo *model.Loadout) error {
	if strings.TrimSpace(lo.Name) == "" {
		return fmt.Errorf("store: loadout name is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old model.Loadout
		err := tx.Where("name = ?", lo.Name).First(&old).Error
		switch {
		case err == nil:
			if err := tx.Where("loadout_id = ?", old.ID).Delete(&model.LoadoutItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		lo.ID = 0
		for i := range lo.Items {
			lo.Items[i].ID = 0
			lo.Items[i].LoadoutID = 0
		}
		return tx.Create(lo).Error
	})
	if err != nil {
		return fmt.Errorf("store: save loadout: %w", err)
	}
	s.logger.Debug("loadout saved", zap.String("name", lo.Name), zap.Int("items", len(lo.Items)))
	return nil
}

// Loadout returns the loadout called name with its items, or ErrNotFound.
func (s *Store) Loadout(ctx context.Context, name string) (*model.Loadout, error) {
	var lo model.Loadout
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("name = ?", name).First(&lo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: loadout: %w", err)
	}
	return &lo, nil
}

// ListLoadouts returns all loadouts by name, without items.
func (s *Store) ListLoadouts(ctx context.Context) ([]model.Loadout, error) {
	var out []model.Loadout
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list loadouts: %w", err)
	}
	return out, nil
}

// DeleteLoadout deletes a loadout and its items, or returns ErrNotFound.
func (s *Store) DeleteLoadout(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lo model.Loadout
		if err := tx.Where("name = ?", name).First(&lo).Error; err != nil {
			return err
		}
		if err := tx.Where("loadout_id = ?", lo.ID).Delete(&model.LoadoutItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&lo).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete loadout: %w", err)
	}
	return nil
}
