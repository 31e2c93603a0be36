package rule

// Category tags a template with the rendering slot family it belongs
// to. The enumeration is closed: tags outside it are dropped by the
// settings validator, never stored.
type Category string

const (
	CategoryContent       Category = "content"
	CategoryHeader        Category = "header"
	CategoryFooter        Category = "footer"
	CategoryArchive       Category = "archive"
	CategorySearchResults Category = "search_results"
	CategoryErrorPage     Category = "error_page"
	CategoryPopup         Category = "popup"
	CategorySection       Category = "section"
)

// AllCategories returns the full closed enumeration in declaration
// order. Callers must not mutate the returned slice.
func AllCategories() []Category {
	return []Category{
		CategoryContent,
		CategoryHeader,
		CategoryFooter,
		CategoryArchive,
		CategorySearchResults,
		CategoryErrorPage,
		CategoryPopup,
		CategorySection,
	}
}

// DefaultCategories returns the category set a fresh install starts
// with: just the main-content category.
func DefaultCategories() []Category {
	return []Category{CategoryContent}
}

// ValidCategory reports whether tag is a member of the enumeration.
func ValidCategory(tag string) bool {
	for _, c := range AllCategories() {
		if string(c) == tag {
			return true
		}
	}
	return false
}
