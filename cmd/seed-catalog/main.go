package main

import (
	"fmt"
	"os"

	"digital-library/library"

	"github.com/spf13/cobra"
)

var (
	dbPath string
	reset  bool
)

var rootCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Load a demo catalog into the library database",
	Long: `seed-catalog fills the library database with a demo catalog so the
console application has something to lend. With --reset it removes the
existing database files first.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "library.db", "path to the SQLite database")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "delete existing database files before seeding")
}

type seedBook struct {
	isbn, title, author, category string
	copies                        int
}

var catalog = []seedBook{
	{"978-0451524935", "1984", "George Orwell", "Dystopia", 3},
	{"978-0451526342", "Animal Farm", "George Orwell", "Satire", 2},
	{"978-0553296983", "The Diary of a Young Girl", "Anne Frank", "Memoir", 1},
	{"978-1590302255", "The Art of War", "Sun Tzu", "Strategy", 4},
	{"978-0547928210", "The Fellowship of the Ring", "J.R.R. Tolkien", "Fantasy", 2},
	{"978-0547928203", "The Two Towers", "J.R.R. Tolkien", "Fantasy", 2},
	{"978-0547928197", "The Return of the King", "J.R.R. Tolkien", "Fantasy", 2},
	{"978-0743477116", "Romeo and Juliet", "William Shakespeare", "Drama", 3},
	{"978-0140449242", "The Three Musketeers", "Alexandre Dumas", "Adventure", 1},
}

func run(cmd *cobra.Command, args []string) error {
	if reset {
		for _, suffix := range []string{"", "-shm", "-wal"} {
			if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s%s: %w", dbPath, suffix, err)
			}
		}
	}

	manager, err := library.NewLibraryManager(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer manager.Close()

	added, skipped := 0, 0
	for _, sb := range catalog {
		if _, err := manager.AddBook(sb.isbn, sb.title, sb.author, sb.category, sb.copies); err != nil {
			fmt.Printf("skip %s (%s): %v\n", sb.title, sb.isbn, err)
			skipped++
			continue
		}
		added++
	}

	fmt.Printf("\nSeed complete: %d added, %d skipped.\n", added, skipped)
	for _, b := range manager.AllBooks() {
		fmt.Println(library.PrettyBook(b))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
