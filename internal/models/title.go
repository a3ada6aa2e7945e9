package models

// Title is a catalogued work under review. The category reference is
// optional and survives category deletion (SET NULL); genre links live in
// the genre_titles join table and cascade away with either side.
type Title struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(256)"`
	Year        int       `json:"year"`
	Description string    `json:"description" gorm:"type:varchar(250)"`
	CategoryID  *uint     `json:"-"`
	Category    *Category `json:"category" gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre   `json:"genre" gorm:"many2many:genre_titles;constraint:OnDelete:CASCADE"`

	// Rating is the rounded mean of associated review scores. It is
	// computed on read, never stored; nil while the title has no reviews.
	Rating *int `json:"rating" gorm:"-"`
}

// GenreTitle is the explicit association row between titles and genres.
// GORM uses it as the join table for Title.Genres.
type GenreTitle struct {
	TitleID uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

// RatingFromScores folds raw review scores into the exposed rating value:
// the arithmetic mean rounded to the nearest integer, nil for no reviews.
func RatingFromScores(scores []int) *int {
	if len(scores) == 0 {
		return nil
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	rounded := int(mean + 0.5)
	return &rounded
}
