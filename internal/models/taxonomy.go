package models

import (
	"fmt"
	"strings"
)

// CategoryKind is one of the two taxonomy roots.
type CategoryKind string

const (
	KindIncome  CategoryKind = "INCOME"
	KindExpense CategoryKind = "EXPENSE"
)

// ParseCategoryKind reads "income(s)"/"einkommen" and "expense(s)"/"ausgaben".
func ParseCategoryKind(s string) (CategoryKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "inc"), v == "einkommen":
		return KindIncome, nil
	case strings.HasPrefix(v, "exp"), v == "ausgaben":
		return KindExpense, nil
	default:
		return "", fmt.Errorf("unknown category type %q", s)
	}
}

type Subcategory struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type CategoryGroup struct {
	Name          string        `json:"name" yaml:"name"`
	Subcategories []Subcategory `json:"subcategories" yaml:"subcategories"`
}

// Taxonomy is the two-level category tree. Group and subcategory order is
// the order of the source file.
type Taxonomy struct {
	Income  []CategoryGroup `json:"income" yaml:"income"`
	Expense []CategoryGroup `json:"expense" yaml:"expense"`
}

// CategoryRef locates a subcategory in the taxonomy.
type CategoryRef struct {
	Kind  CategoryKind
	Group string
	Name  string
	ID    string
}

// Groups returns the groups under kind.
func (t *Taxonomy) Groups(kind CategoryKind) []CategoryGroup {
	if kind == KindIncome {
		return t.Income
	}
	return t.Expense
}

// Lookup finds the subcategory with the given id, income first.
func (t *Taxonomy) Lookup(id string) (CategoryRef, bool) {
	id = strings.TrimSpace(id)
	for _, kind := range []CategoryKind{KindIncome, KindExpense} {
		for _, g := range t.Groups(kind) {
			for _, sub := range g.Subcategories {
				if sub.ID == id {
					return CategoryRef{Kind: kind, Group: g.Name, Name: sub.Name, ID: sub.ID}, true
				}
			}
		}
	}
	return CategoryRef{}, false
}

// ResolveName finds a subcategory of kind by display name, ignoring case and
// surrounding whitespace.
func (t *Taxonomy) ResolveName(kind CategoryKind, name string) (CategoryRef, bool) {
	name = strings.TrimSpace(name)
	for _, g := range t.Groups(kind) {
		for _, sub := range g.Subcategories {
			if strings.EqualFold(strings.TrimSpace(sub.Name), name) {
				return CategoryRef{Kind: kind, Group: g.Name, Name: sub.Name, ID: sub.ID}, true
			}
		}
	}
	return CategoryRef{}, false
}
