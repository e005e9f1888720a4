package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"gopkg.in/yaml.v3"
)

// keywordMeta is the value stored under each keyword.
type keywordMeta struct {
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	ID          scalarID `yaml:"id"`
}

// KeywordFile stores the keyword dictionary as a mapping
// keyword -> {category, subcategory, id}.
type KeywordFile struct {
	Path   string
	Format Format
	logger logging.Logger
}

// NewKeywordFile creates a store for path. The format follows the file
// extension.
func NewKeywordFile(path string, logger logging.Logger) *KeywordFile {
	return &KeywordFile{Path: path, Format: FormatFor(path), logger: defaultLogger(logger)}
}

// LoadKeywords returns the rules in file order. A missing file is an empty
// dictionary.
func (k *KeywordFile) LoadKeywords() ([]models.KeywordRule, error) {
	root, err := loadMapping(k.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			k.logger.Warn("Keyword file not found, starting empty",
				logging.Field{Key: logging.FieldFile, Value: k.Path})
			return []models.KeywordRule{}, nil
		}
		return nil, fmt.Errorf("error reading keyword file: %w", err)
	}
	if root == nil {
		return []models.KeywordRule{}, nil
	}

	rules := make([]models.KeywordRule, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var meta keywordMeta
		if err := value.Decode(&meta); err != nil {
			return nil, fmt.Errorf("error reading keyword %q: %w", key.Value, err)
		}
		rules = append(rules, models.KeywordRule{
			Keyword:     key.Value,
			Category:    meta.Category,
			Subcategory: meta.Subcategory,
			ID:          string(meta.ID),
		})
	}
	k.logger.Debug("Loaded keywords",
		logging.Field{Key: logging.FieldFile, Value: k.Path},
		logging.Field{Key: logging.FieldCount, Value: len(rules)})
	return rules, nil
}

// SaveKeywords rewrites the file with rules in the given order.
func (k *KeywordFile) SaveKeywords(rules []models.KeywordRule) error {
	var (
		data []byte
		err  error
	)
	if k.Format == FormatYAML {
		data, err = encodeKeywordsYAML(rules)
	} else {
		data, err = encodeKeywordsJSON(rules)
	}
	if err != nil {
		return fmt.Errorf("error encoding keywords: %w", err)
	}
	return writeAtomic(k.Path, data)
}

// encodeKeywordsJSON writes an object with two-space indentation. Keys are
// emitted by hand since encoding/json sorts map keys.
func encodeKeywordsJSON(rules []models.KeywordRule) ([]byte, error) {
	if len(rules) == 0 {
		return []byte("{}\n"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, r := range rules {
		key, err := marshalJSON(r.Keyword)
		if err != nil {
			return nil, err
		}
		fields := [][2]string{{"category", r.Category}, {"subcategory", r.Subcategory}, {"id", r.ID}}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": {\n")
		for j, f := range fields {
			v, err := marshalJSON(f[1])
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&buf, "    %q: %s", f[0], v)
			if j < len(fields)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString("  }")
		if i < len(rules)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func encodeKeywordsYAML(rules []models.KeywordRule) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range rules {
		value := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range [][2]string{{"category", r.Category}, {"subcategory", r.Subcategory}, {"id", r.ID}} {
			value.Content = append(value.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: f[0]},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f[1]})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r.Keyword}, value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
