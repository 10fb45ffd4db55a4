// Package catalog holds the fault categories the classifier scores against.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// MaxClarificationQuestions caps the questions attached to a low-confidence result.
const MaxClarificationQuestions = 2

// GenericClarificationQuestions are used when a category defines none of its own.
var GenericClarificationQuestions = []string{
	"When did the problem start, and did anything change right before it?",
	"Does the problem happen all the time, or only under certain conditions?",
}

// Category is one named fault domain.
type Category struct {
	Name                   string   `yaml:"name"`
	Keywords               []string `yaml:"keywords"`
	Description            string   `yaml:"description"`
	ClarificationQuestions []string `yaml:"clarification_questions,omitempty"`
}

// IsFallback reports whether the category is the catch-all.
func (c Category) IsFallback() bool {
	return len(c.Keywords) == 0
}

// Catalog is an immutable, ordered set of categories. Declaration order is
// significant: it breaks scoring ties.
type Catalog struct {
	categories []Category
	byName     map[string]int
	fallback   int
}

var (
	// ErrNoFallback is returned when no category has an empty keyword set.
	ErrNoFallback = errors.New("catalog has no fallback category")
	// ErrMultipleFallbacks is returned when more than one category has an empty keyword set.
	ErrMultipleFallbacks = errors.New("catalog has more than one fallback category")
)

// New validates categories and builds a catalog.
func New(categories []Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		byName:     make(map[string]int, len(categories)),
		fallback:   -1,
	}
	for _, cat := range categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}

		keywords := make([]string, 0, len(cat.Keywords))
		for _, kw := range cat.Keywords {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		questions := append([]string(nil), cat.ClarificationQuestions...)

		idx := len(c.categories)
		if len(keywords) == 0 {
			if c.fallback >= 0 {
				return nil, fmt.Errorf("%w: %q and %q", ErrMultipleFallbacks, c.categories[c.fallback].Name, name)
			}
			c.fallback = idx
		}
		c.byName[name] = idx
		c.categories = append(c.categories, Category{
			Name:                   name,
			Keywords:               keywords,
			Description:            cat.Description,
			ClarificationQuestions: questions,
		})
	}
	if c.fallback < 0 {
		return nil, ErrNoFallback
	}
	return c, nil
}

// MustNew is New for package-level tables known to be valid.
func MustNew(categories []Category) *Catalog {
	c, err := New(categories)
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns a copy of the categories in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cloneCategory(cat)
	}
	return out
}

// Fallback returns the catch-all category.
func (c *Catalog) Fallback() Category {
	return cloneCategory(c.categories[c.fallback])
}

// Lookup finds a category by name.
func (c *Catalog) Lookup(name string) (Category, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Category{}, false
	}
	return cloneCategory(c.categories[idx]), true
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// ClarificationQuestions returns up to two follow-up questions for a category,
// or the generic pair when the category has none.
func (c *Catalog) ClarificationQuestions(name string) []string {
	if idx, ok := c.byName[name]; ok {
		qs := c.categories[idx].ClarificationQuestions
		if len(qs) > 0 {
			if len(qs) > MaxClarificationQuestions {
				qs = qs[:MaxClarificationQuestions]
			}
			return append([]string(nil), qs...)
		}
	}
	return append([]string(nil), GenericClarificationQuestions...)
}

func cloneCategory(cat Category) Category {
	cat.Keywords = append([]string(nil), cat.Keywords...)
	cat.ClarificationQuestions = append([]string(nil), cat.ClarificationQuestions...)
	return cat
}
