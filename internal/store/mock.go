package store

import (
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"
)

// MockKeywordStore is an in-memory keyword store for tests.
type MockKeywordStore struct {
	Rules []models.KeywordRule

	LoadError error
	SaveError error
	Saves     int
}

func (m *MockKeywordStore) LoadKeywords() ([]models.KeywordRule, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	// copy so callers cannot modify the fixture
	return append([]models.KeywordRule{}, m.Rules...), nil
}

func (m *MockKeywordStore) SaveKeywords(rules []models.KeywordRule) error {
	m.Saves++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Rules = append([]models.KeywordRule{}, rules...)
	return nil
}
