// Package importer bulk-loads fixture data from CSV files straight through
// the repositories, so the same uniqueness and cascade rules apply to
// imported rows as to API writes.
package importer

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kritika/internal/models"
	"kritika/internal/repositories"
)

// File names expected inside the data directory, loaded in dependency
// order. A missing file is skipped with a notice.
var csvFiles = []string{
	"users.csv",
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"review.csv",
	"comments.csv",
}

// Importer loads CSV fixtures into the stores.
type Importer struct {
	users   repositories.UserRepository
	catalog repositories.CatalogRepository
	reviews repositories.ReviewRepository
}

// New creates an Importer over the given repositories.
func New(users repositories.UserRepository, catalog repositories.CatalogRepository, reviews repositories.ReviewRepository) *Importer {
	return &Importer{
		users:   users,
		catalog: catalog,
		reviews: reviews,
	}
}

// Run loads every known CSV file found under dataDir. Row-level failures
// (duplicate slug, duplicate review, unknown reference) abort the import
// with the offending file and line.
func (im *Importer) Run(dataDir string) error {
	tables := make(map[string][]map[string]string, len(csvFiles))
	for _, name := range csvFiles {
		rows, err := readCSV(filepath.Join(dataDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("Skipping %s: file not present", name)
				continue
			}
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		tables[name] = rows
		log.Printf("Read %d rows from %s", len(rows), name)
	}

	if err := im.loadUsers(tables["users.csv"]); err != nil {
		return err
	}
	categories, err := im.loadCategories(tables["category.csv"])
	if err != nil {
		return err
	}
	genres, err := im.loadGenres(tables["genre.csv"])
	if err != nil {
		return err
	}
	if err := im.loadTitles(tables["titles.csv"], tables["genre_title.csv"], categories, genres); err != nil {
		return err
	}
	if err := im.loadReviews(tables["review.csv"]); err != nil {
		return err
	}
	if err := im.loadComments(tables["comments.csv"]); err != nil {
		return err
	}
	return nil
}

func (im *Importer) loadUsers(rows []map[string]string) error {
	for i, row := range rows {
		user := models.User{
			ID:        parseUint(row["id"]),
			Username:  row["username"],
			Email:     row["email"],
			Role:      row["role"],
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		if err := im.users.Create(&user); err != nil {
			return fmt.Errorf("users.csv row %d: %w", i+1, err)
		}
	}
	return nil
}

func (im *Importer) loadCategories(rows []map[string]string) (map[uint]*models.Category, error) {
	byID := make(map[uint]*models.Category, len(rows))
	for i, row := range rows {
		category := models.Category{
			ID:   parseUint(row["id"]),
			Name: row["name"],
			Slug: row["slug"],
		}
		if err := im.catalog.CreateCategory(&category); err != nil {
			return nil, fmt.Errorf("category.csv row %d: %w", i+1, err)
		}
		byID[category.ID] = &category
	}
	return byID, nil
}

func (im *Importer) loadGenres(rows []map[string]string) (map[uint]*models.Genre, error) {
	byID := make(map[uint]*models.Genre, len(rows))
	for i, row := range rows {
		genre := models.Genre{
			ID:   parseUint(row["id"]),
			Name: row["name"],
			Slug: row["slug"],
		}
		if err := im.catalog.CreateGenre(&genre); err != nil {
			return nil, fmt.Errorf("genre.csv row %d: %w", i+1, err)
		}
		byID[genre.ID] = &genre
	}
	return byID, nil
}

func (im *Importer) loadTitles(titleRows, linkRows []map[string]string, categories map[uint]*models.Category, genres map[uint]*models.Genre) error {
	// Join the association file up front so each title is created with its
	// genre set in one go.
	genresByTitle := make(map[uint][]models.Genre)
	for i, row := range linkRows {
		titleID := parseUint(row["title_id"])
		genre, ok := genres[parseUint(row["genre_id"])]
		if !ok {
			return fmt.Errorf("genre_title.csv row %d: genre %s: %w", i+1, row["genre_id"], models.ErrUnknownReference)
		}
		genresByTitle[titleID] = append(genresByTitle[titleID], *genre)
	}

	for i, row := range titleRows {
		year, err := strconv.Atoi(row["year"])
		if err != nil {
			return fmt.Errorf("titles.csv row %d: bad year %q", i+1, row["year"])
		}
		title := models.Title{
			ID:          parseUint(row["id"]),
			Name:        row["name"],
			Year:        year,
			Description: row["description"],
		}
		if raw := row["category"]; raw != "" {
			category, ok := categories[parseUint(raw)]
			if !ok {
				return fmt.Errorf("titles.csv row %d: category %s: %w", i+1, raw, models.ErrUnknownReference)
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
		title.Genres = genresByTitle[title.ID]
		if err := im.catalog.CreateTitle(&title); err != nil {
			return fmt.Errorf("titles.csv row %d: %w", i+1, err)
		}
	}
	return nil
}

func (im *Importer) loadReviews(rows []map[string]string) error {
	for i, row := range rows {
		score, err := strconv.Atoi(row["score"])
		if err != nil {
			return fmt.Errorf("review.csv row %d: bad score %q", i+1, row["score"])
		}
		if err := models.ValidateScore(score); err != nil {
			return fmt.Errorf("review.csv row %d: %w", i+1, err)
		}
		review := models.Review{
			ID:        parseUint(row["id"]),
			TitleID:   parseUint(row["title_id"]),
			AuthorID:  parseUint(row["author"]),
			Text:      row["text"],
			Score:     score,
			CreatedAt: parseDate(row["pub_date"]),
		}
		if err := im.reviews.CreateReview(&review); err != nil {
			return fmt.Errorf("review.csv row %d: %w", i+1, err)
		}
	}
	return nil
}

func (im *Importer) loadComments(rows []map[string]string) error {
	for i, row := range rows {
		comment := models.Comment{
			ID:        parseUint(row["id"]),
			ReviewID:  parseUint(row["review_id"]),
			AuthorID:  parseUint(row["author"]),
			Text:      row["text"],
			CreatedAt: parseDate(row["pub_date"]),
		}
		if err := im.reviews.CreateComment(&comment); err != nil {
			return fmt.Errorf("comments.csv row %d: %w", i+1, err)
		}
	}
	return nil
}

// readCSV returns the file as header-keyed rows.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseUint(raw string) uint {
	value, _ := strconv.ParseUint(raw, 10, 64)
	return uint(value)
}

func parseDate(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
