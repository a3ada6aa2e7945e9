// importcsv bulk-loads fixture data (users, categories, genres, titles,
// genre links, reviews, comments) from CSV files into the database. Rows
// pass through the same repositories as API writes, so slug uniqueness,
// score bounds and the one-review constraint hold for imported data too.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kritika/internal/db"
	"kritika/internal/importer"
	"kritika/internal/repositories"
)

var (
	dataDir     string
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "importcsv",
	Short: "Import CSV fixtures into the review catalog database",
	Long: `importcsv reads users.csv, category.csv, genre.csv, titles.csv,
genre_title.csv, review.csv and comments.csv from the data directory and
loads them in dependency order. Files that are not present are skipped.`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		databaseURL = viper.GetString("DATABASE_URL")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	im := importer.New(
		repositories.NewGORMUserRepository(conn),
		repositories.NewGORMCatalogRepository(conn),
		repositories.NewGORMReviewRepository(conn),
	)
	if err := im.Run(dataDir); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	log.Println("Import completed")
	return nil
}

func init() {
	viper.AutomaticEnv()
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "data", "Directory holding the CSV files")
	rootCmd.Flags().StringVar(&databaseURL, "database-url", "", "Database DSN (defaults to DATABASE_URL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
