package pagestate

import "github.com/use-agent/ccbrowser/models"

// roleSelectors maps an accessibility role to the CSS that plausibly backs
// it in real markup. go-rod has no built-in getByRole equivalent, so a
// snapshot's role-based descriptor is turned into a concrete CSS candidate
// list here rather than a semantic accessibility query (spec.md §9 DESIGN
// NOTES: "the ref map as a plain keyed mapping").
var roleSelectors = map[string]string{
	"button":   "button, [role='button'], input[type='button'], input[type='submit']",
	"link":     "a[href], [role='link']",
	"textbox":  "input, textarea, [role='textbox'], [contenteditable='true']",
	"checkbox": "input[type='checkbox'], [role='checkbox']",
	"radio":    "input[type='radio'], [role='radio']",
	"combobox": "select, [role='combobox']",
	"heading":  "h1, h2, h3, h4, h5, h6, [role='heading']",
	"img":      "img, [role='img']",
	"listitem": "li, [role='listitem']",
}

// ResolvedLocator is the concrete query the dispatcher runs against a live
// page to find the element an "eN" ref points to.
type ResolvedLocator struct {
	Selector      string
	Name          string
	Nth           int
	FrameSelector string
	AriaRef       string // set only when desc.Mode == RefModeAria
}

// SelectorForRole returns the CSS candidate list for an accessibility role,
// falling back to an attribute selector for roles with no known mapping.
// Exported so replayer can resolve a recorded role locator the same way a
// live snapshot does.
func SelectorForRole(role string) string {
	if selector, ok := roleSelectors[role]; ok {
		return selector
	}
	return "[role='" + role + "']"
}

// ResolveDescriptor turns a stored ElementDescriptor into a ResolvedLocator
// (spec.md §4.3 Ref resolution). Both modes carry the same Role/Name/Nth
// scoping: "aria" mode additionally tags the locator with the ref itself
// (AriaRef) so the dispatcher can build the scoped `aria-ref=eN` query
// spec.md §4.3 describes, but it must still fall back to the descriptor's
// own role/name/position when no native aria-ref primitive is available —
// never to an unqualified, unscoped selector.
func ResolveDescriptor(ref string, desc models.ElementDescriptor) ResolvedLocator {
	loc := ResolvedLocator{
		Selector:      SelectorForRole(desc.Role),
		Name:          desc.Name,
		Nth:           desc.Nth,
		FrameSelector: desc.FrameSelector,
	}
	if desc.Mode == models.RefModeAria {
		loc.AriaRef = ref
	}
	return loc
}
