package session

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
)

// DBStorage keeps sessions in the sessions table through gorm.
type DBStorage struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStorage creates a DBStorage. The sessions table must be migrated.
func NewDBStorage(db *gorm.DB) *DBStorage {
	return &DBStorage{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the payload of key, or nil when it is missing or expired.
func (s *DBStorage) Get(key string) ([]byte, error) {
	var row models.Session

	err := s.db.Where("id = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if !row.ExpiresAt.IsZero() && !row.ExpiresAt.After(s.now()) {
		return nil, s.Delete(key)
	}

	return row.Data, nil
}

// Set stores val under key. A zero exp keeps the entry until deleted.
func (s *DBStorage) Set(key string, val []byte, exp time.Duration) error {
	row := models.Session{ID: key, Data: val}
	if exp > 0 {
		row.ExpiresAt = s.now().Add(exp)
	}

	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// Delete removes key.
func (s *DBStorage) Delete(key string) error {
	return s.db.Where("id = ?", key).Delete(&models.Session{}).Error
}

// GC removes every expired session and reports how many were removed.
func (s *DBStorage) GC() (int64, error) {
	res := s.db.Where("expires_at > ? AND expires_at <= ?", time.Time{}, s.now()).Delete(&models.Session{})

	return res.RowsAffected, res.Error
}

// Close implements Storage. The database is owned by the caller.
func (s *DBStorage) Close() error {
	return nil
}
