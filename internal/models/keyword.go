package models

import (
	"errors"
	"strings"
)

// KeywordRule maps a keyword to a category. Rules are evaluated in the order
// they are stored; the first keyword contained in a text decides.
type KeywordRule struct {
	Keyword     string `json:"keyword" yaml:"keyword"`
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	ID          string `json:"id" yaml:"id"`
}

// Validate checks the fields required to add a rule.
func (r KeywordRule) Validate() error {
	switch {
	case strings.TrimSpace(r.Keyword) == "":
		return errors.New("keyword must not be empty")
	case strings.TrimSpace(r.ID) == "":
		return errors.New("category id must not be empty")
	}
	return nil
}
