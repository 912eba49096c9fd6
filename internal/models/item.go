package models

import (
	"time"

	"gorm.io/gorm"
)

// Item is one tracked product at one location of one store. The table name and
// store_id default come from the single-store schema this one grew out of.
type Item struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoreID      uint      `gorm:"index:idx_inventory_store_location,priority:1;not null;default:1" json:"store_id"`
	Brand        string    `gorm:"not null" json:"brand"`
	Item         string    `gorm:"column:item;not null" json:"item"`
	Location     string    `gorm:"index:idx_inventory_store_location,priority:2;not null" json:"location"`
	CurrentCount int       `gorm:"not null;default:0" json:"currentCount"`
	TargetAmount int       `gorm:"not null;default:0" json:"targetAmount"`
	Extra        int       `gorm:"not null;default:0" json:"extra"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Item) TableName() string {
	return "inventory"
}

// InsertItem creates it and keeps an explicit Active=false. gorm drops zero
// values of columns that carry a default, so inactive rows need a second write.
func InsertItem(tx *gorm.DB, it *Item) error {
	active := it.Active
	if err := tx.Create(it).Error; err != nil {
		return err
	}
	if active {
		return nil
	}
	it.Active = false
	return tx.Model(it).Update("active", false).Error
}
