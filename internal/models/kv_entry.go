package models

import "time"

// KVEntry is one persisted blob in the SQL-backed key-value store
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
