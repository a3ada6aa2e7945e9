package models

import "time"

// Comment is a reply attached to a review. Cascades away with the review
// or the author.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ReviewID  uint      `json:"-" gorm:"not null"`
	Review    *Review   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"-" gorm:"not null"`
	Author    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:varchar(400)"`
	CreatedAt time.Time `json:"pub_date"`

	// AuthorName mirrors Author.Username for serialization.
	AuthorName string `json:"author" gorm:"-"`
}
