// Package categorizer assigns category ids to statement texts using an
// ordered keyword dictionary.
package categorizer

import (
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"golang.org/x/text/cases"
)

// Classifier matches texts against a KeywordDictionary.
type Classifier struct {
	dict   *KeywordDictionary
	logger logging.Logger
}

func NewClassifier(dict *KeywordDictionary, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if dict == nil {
		dict = NewStaticDictionary()
	}
	return &Classifier{dict: dict, logger: logger}
}

// Dictionary returns the dictionary the classifier reads from.
func (c *Classifier) Dictionary() *KeywordDictionary {
	return c.dict
}

// Classify returns the category id of the first keyword contained in text.
// Matching ignores case and surrounding whitespace. Blank text never
// matches.
func (c *Classifier) Classify(text string) (string, bool) {
	rule, ok := c.Match(text)
	if !ok {
		return "", false
	}
	return rule.ID, true
}

// Match is Classify returning the whole matching rule.
func (c *Classifier) Match(text string) (models.KeywordRule, bool) {
	folded := fold(text)
	if folded == "" {
		return models.KeywordRule{}, false
	}
	rule, ok := c.dict.match(folded)
	if ok {
		c.logger.WithFields(
			logging.Field{Key: logging.FieldKeyword, Value: rule.Keyword},
			logging.Field{Key: logging.FieldCategory, Value: rule.ID},
		).Debug("Text matched keyword")
	}
	return rule, ok
}

// fold trims s and applies Unicode case folding. A Caser holds state, so a
// new one is made per call.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
