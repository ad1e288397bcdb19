package passage

import (
	"strings"

	"github.com/ppiankov/qforge/internal/model"
)

// Source is the read side of a Library
type Source interface {
	Page(collection string, n int) (model.PassageUnit, bool)
	PageCount(collection string) int
	Collections() []string
}

// Groups splits pages [start, end] of a collection into consecutive units of
// at most pagesPerGroup pages. The range is clamped to [1, pageCount].
func Groups(collection string, start, end, pageCount, pagesPerGroup int) []model.WorkUnit {
	if pagesPerGroup <= 0 {
		pagesPerGroup = 1
	}
	if start < 1 {
		start = 1
	}
	if end > pageCount {
		end = pageCount
	}

	var units []model.WorkUnit
	for first := start; first <= end; first += pagesPerGroup {
		last := first + pagesPerGroup - 1
		if last > end {
			last = end
		}
		units = append(units, model.WorkUnit{Collection: collection, StartPage: first, EndPage: last})
	}
	return units
}

// BookGroups covers a whole collection
func BookGroups(src Source, collection string, pagesPerGroup int) []model.WorkUnit {
	n := src.PageCount(collection)
	return Groups(collection, 1, n, n, pagesPerGroup)
}

// Combine joins the unit's pages with blank lines. missing lists page numbers
// that could not be loaded; ok is false when none could.
func Combine(src Source, unit model.WorkUnit) (passage model.PassageUnit, missing []int, ok bool) {
	var parts []string
	for n := unit.StartPage; n <= unit.EndPage; n++ {
		page, found := src.Page(unit.Collection, n)
		if !found {
			missing = append(missing, n)
			continue
		}
		parts = append(parts, page.Text)
	}

	if len(parts) == 0 {
		return model.PassageUnit{}, missing, false
	}
	return model.PassageUnit{
		Text:       strings.Join(parts, "\n\n"),
		Identifier: unit.ID(),
	}, missing, true
}
