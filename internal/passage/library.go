// Package passage serves textbook text as numbered pages and plans page groups.
package passage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/qforge/internal/model"
)

// DefaultPageSize is the number of characters per page
const DefaultPageSize = 3000

// Library is a directory of books, one .txt or .html file each. The file
// stem is the collection name. Books are read and paged on first use.
type Library struct {
	dir      string
	pageSize int

	mu    sync.Mutex
	books map[string][]string
}

func NewLibrary(dir string, pageSize int) *Library {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Library{
		dir:      dir,
		pageSize: pageSize,
		books:    make(map[string][]string),
	}
}

// Dir returns the library directory
func (l *Library) Dir() string {
	return l.dir
}

// Collections lists book names in sorted order
func (l *Library) Collections() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := bookName(e.Name())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PageCount returns the number of pages in a collection, 0 if unknown
func (l *Library) PageCount(collection string) int {
	pages, err := l.pages(collection)
	if err != nil {
		return 0
	}
	return len(pages)
}

// Page returns page n (1-based) of a collection
func (l *Library) Page(collection string, n int) (model.PassageUnit, bool) {
	pages, err := l.pages(collection)
	if err != nil || n < 1 || n > len(pages) {
		return model.PassageUnit{}, false
	}
	return model.PassageUnit{
		Text:       pages[n-1],
		Identifier: fmt.Sprintf("%s%s%d", collection, model.PageSeparator, n),
	}, true
}

func (l *Library) pages(collection string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pages, ok := l.books[collection]; ok {
		return pages, nil
	}

	text, err := l.load(collection)
	if err != nil {
		return nil, err
	}
	pages := Paginate(text, l.pageSize)
	l.books[collection] = pages
	return pages, nil
}

// load reads the .txt file for collection, or the .html file converted to text
func (l *Library) load(collection string) (string, error) {
	txt := filepath.Join(l.dir, collection+".txt")
	if data, err := os.ReadFile(txt); err == nil {
		return string(data), nil
	}

	for _, ext := range []string{".html", ".htm"} {
		f, err := os.Open(filepath.Join(l.dir, collection+ext))
		if err != nil {
			continue
		}
		text, err := HTMLText(f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("parse %s%s: %w", collection, ext, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("collection %q not found in %s", collection, l.dir)
}

// Paginate splits text into chunks of size characters. The last page may be shorter.
func Paginate(text string, size int) []string {
	if size <= 0 {
		size = DefaultPageSize
	}
	runes := []rune(text)
	pages := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pages = append(pages, string(runes[start:end]))
	}
	return pages
}

func bookName(file string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".txt", ".html", ".htm":
	default:
		return "", false
	}
	if strings.HasPrefix(file, ".") {
		return "", false
	}
	return strings.TrimSuffix(file, filepath.Ext(file)), true
}
