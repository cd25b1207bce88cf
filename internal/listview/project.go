package listview

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mymemo-client/internal/domain"
)

// Projector derives the displayed list from fetched memos and view options.
type Projector struct {
	lang language.Tag
}

// NewProjector creates a projector that orders text for locale. An
// unparseable locale falls back to English.
func NewProjector(locale string) *Projector {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Projector{lang: tag}
}

var defaultProjector = NewProjector("en")

// Project applies opts to memos using English collation.
func Project(memos []domain.Memo, opts Options) []domain.Memo {
	return defaultProjector.Project(memos, opts)
}

// Project filters and sorts a copy of memos. The input is never modified.
func (p *Projector) Project(memos []domain.Memo, opts Options) []domain.Memo {
	out := make([]domain.Memo, 0, len(memos))

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(opts.FilterText))
	for _, m := range memos {
		if needle != "" &&
			!strings.Contains(fold.String(m.Title), needle) &&
			!strings.Contains(fold.String(m.Memo), needle) {
			continue
		}
		if opts.ShowFavouritesOnly && !m.Favourite {
			continue
		}
		out = append(out, m)
	}

	cmp := p.comparator(opts.Sorting.By)
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Sorting.Desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func (p *Projector) comparator(field domain.SortField) func(a, b domain.Memo) int {
	switch field {
	case domain.SortByTitle, domain.SortByMemo:
		// Collators keep scratch buffers, so each projection gets its own.
		c := collate.New(p.lang)
		text := func(m domain.Memo) string {
			if field == domain.SortByTitle {
				return m.Title
			}
			return m.Memo
		}
		return func(a, b domain.Memo) int {
			return c.CompareString(text(a), text(b))
		}
	default:
		return func(a, b domain.Memo) int {
			return a.Created.Compare(b.Created)
		}
	}
}
