package enrich

import "strings"

// DefaultTitleFilter is the decision-maker title priority order: the first
// person matching the earliest title wins.
var DefaultTitleFilter = []string{
	"CEO",
	"Chief Executive Officer",
	"Founder",
	"Co-Founder",
	"Owner",
	"Managing Director",
	"E-commerce Director",
	"Head of E-commerce",
	"E-Commerce Manager",
	"Director of Business Development",
	"Business Development",
}

// PickDecisionMaker returns the highest-priority person by title order, or
// the provider's first candidate when no title matches. ok is false only for
// an empty candidate list.
func PickDecisionMaker(people []Person, titleFilter []string) (Person, bool) {
	if len(people) == 0 {
		return Person{}, false
	}
	for _, want := range titleFilter {
		want = strings.ToLower(want)
		for _, p := range people {
			if strings.Contains(strings.ToLower(p.Title), want) {
				return p, true
			}
		}
	}
	return people[0], true
}
