package models

import "time"

// Score bounds for a review.
const (
	MinScore = 1
	MaxScore = 10
)

// MaxTextLength bounds review and comment bodies.
const MaxTextLength = 400

// Review is a single user's opinion of a title. The composite unique index
// on (author_id, title_id) backs the one-review-per-title invariant; the
// service layer pre-checks it, the index settles races.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TitleID   uint      `json:"-" gorm:"uniqueIndex:idx_reviews_author_title;not null"`
	Title     *Title    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"-" gorm:"uniqueIndex:idx_reviews_author_title;not null"`
	Author    *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:varchar(400)"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"pub_date"`

	// AuthorName mirrors Author.Username for serialization.
	AuthorName string `json:"author" gorm:"-"`
}

// ValidateScore checks the inclusive 1..10 score range.
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}
