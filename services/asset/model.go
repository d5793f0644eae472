package asset

import "time"

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
)

type Asset struct {
	ID           string     `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	AccountID    string     `gorm:"column:account_id;not null;index" json:"account_id"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	Category     string     `gorm:"column:category;not null" json:"category"`
	SerialNumber *string    `gorm:"column:serial_number" json:"serial_number"`
	Status       Status     `gorm:"column:status;not null;default:available" json:"status"`
	AssignedTo   *string    `gorm:"column:assigned_to;index" json:"assigned_to"`
	AssignedAt   *time.Time `gorm:"column:assigned_at" json:"assigned_at"`
}

func (Asset) TableName() string { return "assets" }
