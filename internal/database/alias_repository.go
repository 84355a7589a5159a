package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AliasRepository provides database operations for aliases
type AliasRepository struct {
	db *gorm.DB
}

// NewAliasRepository creates a new repository instance
func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// Get finds an alias by kind and id
func (r *AliasRepository) Get(kind string, id uint32) (*Alias, error) {
	var alias Alias
	err := r.db.Where("kind = ? AND id = ?", kind, id).First(&alias).Error
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

// Upsert creates or updates a single alias
func (r *AliasRepository) Upsert(alias *Alias) error {
	if alias == nil {
		return fmt.Errorf("alias cannot be nil")
	}

	alias.SanitizeFields()
	if !alias.IsValid() {
		return fmt.Errorf("alias is not valid: kind=%q id=%d name=%q", alias.Kind, alias.ID, alias.Name)
	}
	alias.UpdatedAt = time.Now()

	return r.db.Save(alias).Error
}

// UpsertBatch creates or updates aliases in transactions of up to 1000
// records. Invalid records are skipped.
func (r *AliasRepository) UpsertBatch(aliases []Alias) error {
	if len(aliases) == 0 {
		return nil
	}

	const batchSize = 1000

	for i := 0; i < len(aliases); i += batchSize {
		end := min(i+batchSize, len(aliases))

		valid := make([]Alias, 0, end-i)
		for _, alias := range aliases[i:end] {
			alias.SanitizeFields()
			if alias.IsValid() {
				alias.UpdatedAt = time.Now()
				valid = append(valid, alias)
			}
		}

		if len(valid) == 0 {
			continue
		}

		err := r.db.Transaction(func(tx *gorm.DB) error {
			for _, alias := range valid {
				if err := tx.Save(&alias).Error; err != nil {
					return err
				}
			}
			return nil
		})

		if err != nil {
			return fmt.Errorf("batch upsert failed at batch starting at index %d: %w", i, err)
		}
	}

	return nil
}

// All returns every alias of a kind, ordered by id
func (r *AliasRepository) All(kind string) ([]Alias, error) {
	var aliases []Alias
	err := r.db.Where("kind = ?", kind).Order("id ASC").Find(&aliases).Error
	return aliases, err
}

// Count returns the number of aliases of a kind, or of all kinds when
// kind is empty
func (r *AliasRepository) Count(kind string) (int64, error) {
	var count int64
	q := r.db.Model(&Alias{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Count(&count).Error
	return count, err
}

// DeleteAll removes all aliases from the database
func (r *AliasRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&Alias{}).Error
}

// GetRecentlyUpdated returns aliases updated after the specified time
func (r *AliasRepository) GetRecentlyUpdated(since time.Time, limit int) ([]Alias, error) {
	var aliases []Alias
	err := r.db.Where("updated_at > ?", since).
		Order("updated_at DESC").
		Limit(limit).
		Find(&aliases).Error
	return aliases, err
}

// FindByNamePattern searches for names starting with a prefix
func (r *AliasRepository) FindByNamePattern(pattern string, limit int) ([]Alias, error) {
	var aliases []Alias
	err := r.db.Where("name LIKE ?", pattern+"%").
		Order("name ASC").
		Limit(limit).
		Find(&aliases).Error
	return aliases, err
}

// HealthCheck verifies the repository is working correctly
func (r *AliasRepository) HealthCheck() error {
	var count int64
	return r.db.Model(&Alias{}).Count(&count).Error
}
