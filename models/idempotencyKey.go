package models

import "time"

// IdempotencyKey remembers which resource a client-supplied key produced.
// It is written in the same transaction as the resource, so a row exists only
// for work that committed. Unique constraint: (operation, key).
type IdempotencyKey struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Operation  string    `gorm:"size:100;not null;index:uniq_idem,unique" json:"operation"`
	Key        string    `gorm:"size:255;not null;index:uniq_idem,unique" json:"key"`
	ResourceId int       `gorm:"not null" json:"resource_id"`
	UserId     int       `gorm:"index" json:"user_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
