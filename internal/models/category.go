package models

import "regexp"

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

// Category groups titles by kind of work (books, films, ...). Identity is
// the URL-safe slug; there is no update operation on categories.
type Category struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(256)"`
	Slug string `json:"slug" gorm:"uniqueIndex;type:varchar(50)"`
}

// ValidateSlug checks the URL-safe slug character class and length bound.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return &ValidationError{
			Field:   "slug",
			Message: "only letters, digits, - and _ are allowed, length 1-50",
		}
	}
	return nil
}
