package categorizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
)

// KeywordStore persists the ordered keyword rules.
type KeywordStore interface {
	LoadKeywords() ([]models.KeywordRule, error)
	SaveKeywords(rules []models.KeywordRule) error
}

type entry struct {
	rule   models.KeywordRule
	folded string
}

// KeywordDictionary holds the keyword rules in evaluation order. Reads may
// happen concurrently; Add is the only write path.
type KeywordDictionary struct {
	mu      sync.RWMutex
	entries []entry
	store   KeywordStore
	logger  logging.Logger
}

// NewKeywordDictionary loads the rules from store. A nil store gives an
// empty dictionary whose additions are kept in memory only.
func NewKeywordDictionary(store KeywordStore, logger logging.Logger) (*KeywordDictionary, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	d := &KeywordDictionary{store: store, logger: logger}
	if store == nil {
		return d, nil
	}

	rules, err := store.LoadKeywords()
	if err != nil {
		return nil, fmt.Errorf("error loading keywords: %w", err)
	}
	d.entries = make([]entry, 0, len(rules))
	for _, r := range rules {
		d.entries = append(d.entries, newEntry(r))
	}
	logger.Debug("Loaded keyword dictionary", logging.Field{Key: logging.FieldCount, Value: len(d.entries)})
	return d, nil
}

// NewStaticDictionary builds an in-memory dictionary from rules.
func NewStaticDictionary(rules ...models.KeywordRule) *KeywordDictionary {
	d, _ := NewKeywordDictionary(nil, logging.NewLogrusAdapter("warn", "text"))
	for _, r := range rules {
		d.entries = append(d.entries, newEntry(r))
	}
	return d
}

func newEntry(r models.KeywordRule) entry {
	return entry{rule: r, folded: fold(r.Keyword)}
}

// Rules returns a copy of the rules in evaluation order.
func (d *KeywordDictionary) Rules() []models.KeywordRule {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.KeywordRule, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.rule
	}
	return out
}

func (d *KeywordDictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Add appends rule, or replaces the rule with the same keyword in place,
// and persists the dictionary. When persisting fails the in-memory change
// is rolled back and the error returned.
func (d *KeywordDictionary) Add(rule models.KeywordRule) error {
	rule.Keyword = strings.TrimSpace(rule.Keyword)
	rule.ID = strings.TrimSpace(rule.ID)
	if err := rule.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	previous := d.entries
	next := make([]entry, len(previous), len(previous)+1)
	copy(next, previous)

	replaced := false
	for i, e := range next {
		if e.rule.Keyword == rule.Keyword {
			next[i] = newEntry(rule)
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, newEntry(rule))
	}
	d.entries = next

	if d.store != nil {
		rules := make([]models.KeywordRule, len(next))
		for i, e := range next {
			rules[i] = e.rule
		}
		if err := d.store.SaveKeywords(rules); err != nil {
			d.entries = previous
			return fmt.Errorf("error saving keywords: %w", err)
		}
	}

	d.logger.WithFields(
		logging.Field{Key: logging.FieldKeyword, Value: rule.Keyword},
		logging.Field{Key: logging.FieldCategory, Value: rule.ID},
	).Info("Keyword saved")
	return nil
}

// match returns the first rule whose keyword is contained in folded text.
func (d *KeywordDictionary) match(folded string) (models.KeywordRule, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.folded != "" && strings.Contains(folded, e.folded) {
			return e.rule, true
		}
	}
	return models.KeywordRule{}, false
}
