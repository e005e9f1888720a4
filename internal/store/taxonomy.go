package store

import (
	"fmt"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"gopkg.in/yaml.v3"
)

var rootKinds = map[string]models.CategoryKind{
	"INCOME":    models.KindIncome,
	"EINKOMMEN": models.KindIncome,
	"EXPENSE":   models.KindExpense,
	"EXPENSES":  models.KindExpense,
	"AUSGABEN":  models.KindExpense,
}

type subcategoryEntry struct {
	ID   scalarID `yaml:"id"`
	Name string   `yaml:"name"`
}

// LoadTaxonomy reads the category tree from path:
//
//	{"AUSGABEN": {"Wohnen": [{"id": 40, "name": "Miete"}, ...], ...}, "EINKOMMEN": {...}}
//
// Unknown root keys are ignored.
func LoadTaxonomy(path string, logger logging.Logger) (*models.Taxonomy, error) {
	logger = defaultLogger(logger)
	root, err := loadMapping(path)
	if err != nil {
		return nil, fmt.Errorf("error reading category file: %w", err)
	}
	tax := &models.Taxonomy{}
	if root == nil {
		logger.Warn("Category file is empty", logging.Field{Key: logging.FieldFile, Value: path})
		return tax, nil
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		kind, ok := rootKinds[strings.ToUpper(strings.TrimSpace(key.Value))]
		if !ok {
			logger.Debug("Ignoring unknown category root", logging.Field{Key: logging.FieldCategory, Value: key.Value})
			continue
		}
		if value.Kind != yaml.MappingNode && value.Tag != "!!null" {
			return nil, fmt.Errorf("error reading category file: %s must map group names to subcategories", key.Value)
		}

		var groups []models.CategoryGroup
		for j := 0; j+1 < len(value.Content); j += 2 {
			name := value.Content[j].Value
			var subs []subcategoryEntry
			if err := value.Content[j+1].Decode(&subs); err != nil {
				return nil, fmt.Errorf("error reading category group %q: %w", name, err)
			}
			group := models.CategoryGroup{Name: name, Subcategories: make([]models.Subcategory, 0, len(subs))}
			for _, s := range subs {
				group.Subcategories = append(group.Subcategories, models.Subcategory{ID: string(s.ID), Name: s.Name})
			}
			groups = append(groups, group)
		}

		if kind == models.KindIncome {
			tax.Income = append(tax.Income, groups...)
		} else {
			tax.Expense = append(tax.Expense, groups...)
		}
	}

	logger.Debug("Loaded category taxonomy",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(tax.Income) + len(tax.Expense)})
	return tax, nil
}
