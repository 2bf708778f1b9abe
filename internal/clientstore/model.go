package clientstore

import "time"

// Entry is one persisted key of one client.
type Entry struct {
	ClientID  string    `gorm:"column:client_id;type:varchar(64);primaryKey"`
	Key       string    `gorm:"column:item_key;type:varchar(64);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;index"`
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "client_storage"
}

// Event is published after a key changes. NewValue is empty and Removed is true on deletion.
type Event struct {
	ClientID string
	Key      string
	OldValue string
	NewValue string
	Removed  bool
}
