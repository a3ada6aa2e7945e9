package models

// Genre tags titles with a style of work. Slug-addressed like Category.
type Genre struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(256)"`
	Slug string `json:"slug" gorm:"uniqueIndex;type:varchar(50)"`
}
