// Package category assigns a category to an event from its free text.
package category

import (
	"strings"

	"github.com/okian/minisched/internal/domain/model"
)

// Categorizer maps event text to a category.
type Categorizer interface {
	Categorize(title, notes string) model.Category
}

// Func adapts a plain function to the Categorizer interface.
type Func func(title, notes string) model.Category

// Categorize calls f.
func (f Func) Categorize(title, notes string) model.Category { return f(title, notes) }

// Keywords is the default keyword-based Categorizer.
var Keywords Categorizer = Func(Categorize) //nolint:gochecknoglobals // stateless default

// rule maps a keyword set to a category. Rules are evaluated in order.
type rule struct {
	category model.Category
	keywords []string
}

// rules holds the fixed keyword sets. Work is checked before Personal,
// so text matching both is Work.
var rules = []rule{ //nolint:gochecknoglobals // read-only table
	{model.CategoryWork, []string{"meeting", "project", "client", "deadline", "presentation"}},
	{model.CategoryPersonal, []string{"birthday", "family", "home", "party", "vacation"}},
}

// Categorize returns the category for an event's title and notes.
// Keywords match as case-insensitive substrings of "title notes", so
// "homestretch" counts as "home".
func Categorize(title, notes string) model.Category {
	content := strings.ToLower(title + " " + notes)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(content, kw) {
				return r.category
			}
		}
	}
	return model.CategoryOther
}
