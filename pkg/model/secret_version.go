package model

import "time"

// SecretVersion is one slot of a versioned secret.
type SecretVersion struct {
	Path      string `gorm:"primaryKey"`
	Slot      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (SecretVersion) TableName() string {
	return "secret_versions"
}
