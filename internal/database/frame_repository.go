package database

import (
	"time"

	"gorm.io/gorm"
)

// FrameRepository stores the frame log
type FrameRepository struct {
	db *gorm.DB
}

// NewFrameRepository creates a new repository instance
func NewFrameRepository(db *gorm.DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// Insert appends a frame to the log
func (r *FrameRepository) Insert(rec *FrameRecord) error {
	return r.db.Create(rec).Error
}

// Recent returns the newest frames first
func (r *FrameRepository) Recent(limit int) ([]FrameRecord, error) {
	var records []FrameRecord
	err := r.db.Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}

// ByTalkgroup returns the newest frames that carried a talkgroup
func (r *FrameRepository) ByTalkgroup(tgid uint16, limit int) ([]FrameRecord, error) {
	var records []FrameRecord
	err := r.db.Where("tgid = ?", tgid).Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}

// CountByType returns the number of logged frames per data unit type
func (r *FrameRepository) CountByType() (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.db.Model(&FrameRecord{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Count
	}
	return out, nil
}

// Count returns the number of logged frames
func (r *FrameRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&FrameRecord{}).Count(&count).Error
	return count, err
}

// DeleteBefore removes frames logged before t and returns how many went
func (r *FrameRepository) DeleteBefore(t time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", t).Delete(&FrameRecord{})
	return res.RowsAffected, res.Error
}
