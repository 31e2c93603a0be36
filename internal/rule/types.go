package rule

// TemplateNone marks a rule with no template selected. Such a rule is
// kept in the list (the admin UI edits it in place) but can never win
// a resolution.
const TemplateNone = 0

// TaxonomyPostType is the one content type that carries the category
// taxonomy. Taxonomy-term conditions only constrain items of this type;
// for every other type the term condition is vacuously satisfied.
const TaxonomyPostType = "post"

// Rule binds a fallback template to a combination of content-type,
// user-role, and taxonomy-term conditions.
//
// Field semantics:
//   - TemplateID: template to apply; TemplateNone (0) means unset.
//   - PostTypes: content types the rule applies to. An EMPTY set means
//     the rule matches nothing (inert), not "all types".
//   - UserRole: required role capability; "" means no role restriction
//     (matches anonymous and all authenticated viewers).
//   - TaxTermIDs: taxonomy terms; empty means no taxonomy restriction.
//   - Priority: lower values are evaluated first. Ties are broken by
//     list position (stable ordering).
type Rule struct {
	TemplateID int      `json:"template_id"`
	PostTypes  []string `json:"post_types"`
	UserRole   string   `json:"user_role"`
	TaxTermIDs []int    `json:"tax_term_ids"`
	Priority   int      `json:"priority"`
}

// Inert returns the default empty rule the store is seeded with.
// It has no template and no post types, so it can never match.
func Inert() Rule {
	return Rule{
		TemplateID: TemplateNone,
		PostTypes:  []string{},
		UserRole:   "",
		TaxTermIDs: []int{},
		Priority:   0,
	}
}

// HasPostType reports whether the rule's post-type set contains pt.
func (r Rule) HasPostType(pt string) bool {
	for _, t := range r.PostTypes {
		if t == pt {
			return true
		}
	}
	return false
}

// HasAnyTerm reports whether the rule's term set intersects terms.
// An empty rule term set never intersects anything; callers that want
// "no restriction" semantics must check len(TaxTermIDs) themselves.
func (r Rule) HasAnyTerm(terms []int) bool {
	if len(r.TaxTermIDs) == 0 || len(terms) == 0 {
		return false
	}
	want := make(map[int]struct{}, len(r.TaxTermIDs))
	for _, id := range r.TaxTermIDs {
		want[id] = struct{}{}
	}
	for _, id := range terms {
		if _, ok := want[id]; ok {
			return true
		}
	}
	return false
}

// Item is the content item a resolution runs against.
type Item struct {
	// ID identifies the content item. Informational only; matching is
	// driven by PostType and TermIDs.
	ID int

	// PostType is the item's content-type identifier.
	PostType string

	// TermIDs are the taxonomy terms attached to the item. Only
	// meaningful when PostType is TaxonomyPostType.
	TermIDs []int
}

// Viewer holds the externally supplied facts about the current viewer.
// The core never authenticates anyone; the host resolves identity and
// hands the result over as plain facts.
type Viewer struct {
	// Authenticated reports whether the viewer is logged in.
	Authenticated bool

	// Capabilities are the role capabilities the viewer holds.
	Capabilities []string
}

// Can reports whether the viewer holds the given capability.
// Anonymous viewers hold no capabilities.
func (v Viewer) Can(capability string) bool {
	if !v.Authenticated {
		return false
	}
	for _, c := range v.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
