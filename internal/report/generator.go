// Package report aggregates stored transactions into spending summaries.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/currencyutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/dateutils"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/logging"
	"github.com/Dodoeniel/SemiAutomatedBankStatementClassification/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidQuery marks bad caller input.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrCategoryNotFound is returned when a category name is not in the
	// taxonomy.
	ErrCategoryNotFound = errors.New("category not found")

	yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

// Source provides the stored rows reports are built from.
type Source interface {
	ListCategorized(ctx context.Context) ([]models.StoredTransaction, error)
	ListByCategoryID(ctx context.Context, categoryID string) ([]models.StoredTransaction, error)
}

// Generator builds reports against one taxonomy.
type Generator struct {
	source   Source
	taxonomy *models.Taxonomy
	logger   logging.Logger
}

func NewGenerator(source Source, taxonomy *models.Taxonomy, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if taxonomy == nil {
		taxonomy = &models.Taxonomy{}
	}
	return &Generator{source: source, taxonomy: taxonomy, logger: logger}
}

// Entry is one transaction inside a summary.
type Entry struct {
	Date    string `json:"date" yaml:"date"`
	Purpose string `json:"purpose" yaml:"purpose"`
	Amount  Money  `json:"amount" yaml:"amount"`
}

type SubcategorySummary struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Sum     Money   `json:"sum" yaml:"sum"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

type GroupSummary struct {
	Name          string               `json:"name" yaml:"name"`
	Subcategories []SubcategorySummary `json:"subcategories" yaml:"subcategories"`
}

// SpendingSummary groups classified transactions by kind, group and
// subcategory, in order of first appearance.
type SpendingSummary struct {
	Income  []GroupSummary `json:"income" yaml:"income"`
	Expense []GroupSummary `json:"expense" yaml:"expense"`
}

// classified pairs a row with its taxonomy entry and sign-normalized amount.
type classified struct {
	tx     models.StoredTransaction
	ref    models.CategoryRef
	amount decimal.Decimal
}

// resolve looks up the category of every row. Rows with ids missing from
// the taxonomy are skipped with a warning.
func (g *Generator) resolve(rows []models.StoredTransaction) []classified {
	out := make([]classified, 0, len(rows))
	for _, tx := range rows {
		id := tx.CategoryID()
		ref, ok := g.taxonomy.Lookup(id)
		if !ok {
			g.logger.Warn("Category id not found in taxonomy",
				logging.Field{Key: logging.FieldCategory, Value: id})
			continue
		}
		out = append(out, classified{tx: tx, ref: ref, amount: normalizeSign(ref.Kind, g.amount(tx))})
	}
	return out
}

func (g *Generator) amount(tx models.StoredTransaction) decimal.Decimal {
	d, err := currencyutils.ToDecimal(tx.Amount)
	if err != nil {
		g.logger.WithError(err).Warn("Amount could not be parsed, using 0",
			logging.Field{Key: logging.FieldValue, Value: tx.Amount})
		return decimal.Zero
	}
	return d
}

// normalizeSign makes expenses negative and incomes positive.
func normalizeSign(kind models.CategoryKind, d decimal.Decimal) decimal.Decimal {
	if kind == models.KindExpense && d.IsPositive() || kind == models.KindIncome && d.IsNegative() {
		return d.Neg()
	}
	return d
}

// Summary builds the spending summary over all classified rows.
func (g *Generator) Summary(ctx context.Context) (*SpendingSummary, error) {
	rows, err := g.source.ListCategorized(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading classified transactions: %w", err)
	}

	out := &SpendingSummary{Income: []GroupSummary{}, Expense: []GroupSummary{}}
	for _, c := range g.resolve(rows) {
		groups := &out.Expense
		if c.ref.Kind == models.KindIncome {
			groups = &out.Income
		}
		group := findGroup(groups, c.ref.Group)
		sub := findSubcategory(group, c.ref)
		sub.Sum = NewMoney(sub.Sum.Add(c.amount))
		sub.Entries = append(sub.Entries, Entry{Date: c.tx.BookingDate, Purpose: c.tx.Purpose, Amount: NewMoney(c.amount)})
	}
	return out, nil
}

func findGroup(groups *[]GroupSummary, name string) *GroupSummary {
	for i := range *groups {
		if (*groups)[i].Name == name {
			return &(*groups)[i]
		}
	}
	*groups = append(*groups, GroupSummary{Name: name})
	return &(*groups)[len(*groups)-1]
}

func findSubcategory(g *GroupSummary, ref models.CategoryRef) *SubcategorySummary {
	for i := range g.Subcategories {
		if g.Subcategories[i].ID == ref.ID {
			return &g.Subcategories[i]
		}
	}
	g.Subcategories = append(g.Subcategories, SubcategorySummary{ID: ref.ID, Name: ref.Name, Entries: []Entry{}})
	return &g.Subcategories[len(g.Subcategories)-1]
}

// MonthlyType selects the halves of the monthly payload.
type MonthlyType string

const (
	MonthlyAll      MonthlyType = "all"
	MonthlyExpenses MonthlyType = "expenses"
	MonthlyIncomes  MonthlyType = "incomes"
)

// ParseMonthlyType reads incomes/expenses; anything else is all.
func ParseMonthlyType(s string) MonthlyType {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "inc"):
		return MonthlyIncomes
	case strings.HasPrefix(v, "exp"):
		return MonthlyExpenses
	default:
		return MonthlyAll
	}
}

// ChartPayload is a series per subcategory over the sorted months.
type ChartPayload struct {
	Categories []string           `json:"categories" yaml:"categories"`
	Months     []string           `json:"months" yaml:"months"`
	Data       map[string][]Money `json:"data" yaml:"data"`
}

type MonthlySummary struct {
	Expenses *ChartPayload `json:"expenses,omitempty" yaml:"expenses,omitempty"`
	Incomes  *ChartPayload `json:"incomes,omitempty" yaml:"incomes,omitempty"`
}

type monthlySeries struct {
	names  []string
	totals map[string]map[string]decimal.Decimal
}

func (s *monthlySeries) add(name, ym string, d decimal.Decimal) {
	if s.totals == nil {
		s.totals = map[string]map[string]decimal.Decimal{}
	}
	byMonth, ok := s.totals[name]
	if !ok {
		byMonth = map[string]decimal.Decimal{}
		s.totals[name] = byMonth
		s.names = append(s.names, name)
	}
	byMonth[ym] = byMonth[ym].Add(d)
}

func (s *monthlySeries) payload(months []string) *ChartPayload {
	p := &ChartPayload{Categories: append([]string{}, s.names...), Months: months, Data: map[string][]Money{}}
	for _, name := range s.names {
		values := make([]Money, len(months))
		for i, m := range months {
			values[i] = NewMoney(s.totals[name][m])
		}
		p.Data[name] = values
	}
	return p
}

// Monthly sums classified rows per subcategory name and year-month. Rows
// without a readable date are left out.
func (g *Generator) Monthly(ctx context.Context, typ MonthlyType) (*MonthlySummary, error) {
	rows, err := g.source.ListCategorized(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading classified transactions: %w", err)
	}

	var income, expense monthlySeries
	monthSet := map[string]struct{}{}
	for _, tx := range rows {
		ym, ok := dateutils.ToYearMonth(tx.BookingDate)
		if !ok {
			continue
		}
		ref, ok := g.taxonomy.Lookup(tx.CategoryID())
		if !ok {
			continue
		}
		monthSet[ym] = struct{}{}
		amount := normalizeSign(ref.Kind, g.amount(tx))
		if ref.Kind == models.KindIncome {
			income.add(ref.Name, ym, amount)
		} else {
			expense.add(ref.Name, ym, amount)
		}
	}
	months := sortedKeys(monthSet)

	out := &MonthlySummary{}
	if typ != MonthlyIncomes {
		out.Expenses = expense.payload(months)
	}
	if typ != MonthlyExpenses {
		out.Incomes = income.payload(months)
	}
	return out, nil
}

// DetailEntry is a raw transaction in a month/category detail. Amounts keep
// the sign they were stored with.
type DetailEntry struct {
	Date        string `json:"date" yaml:"date"`
	Description string `json:"description" yaml:"description"`
	Amount      Money  `json:"amount" yaml:"amount"`
}

type CategoryDetail struct {
	Category        string              `json:"category" yaml:"category"`
	YearMonth       string              `json:"year_month" yaml:"year_month"`
	Type            models.CategoryKind `json:"type" yaml:"type"`
	Total           Money               `json:"total" yaml:"total"`
	Count           int                 `json:"count" yaml:"count"`
	MonthsAvailable []string            `json:"months_available" yaml:"months_available"`
	Entries         []DetailEntry       `json:"entries" yaml:"entries"`
}

// ByMonthCategory lists the transactions of one subcategory, given by
// display name, in the month ym (YYYY-MM). typ defaults to expenses; values
// starting with "inc" select incomes.
func (g *Generator) ByMonthCategory(ctx context.Context, typ, name, ym string) (*CategoryDetail, error) {
	kind := models.KindExpense
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(typ)), "inc") {
		kind = models.KindIncome
	}
	ym = strings.TrimSpace(ym)
	if strings.TrimSpace(name) == "" || !yearMonthPattern.MatchString(ym) {
		return nil, fmt.Errorf("%w: category and year-month (YYYY-MM) are required", ErrInvalidQuery)
	}

	ref, ok := g.taxonomy.ResolveName(kind, name)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrCategoryNotFound, name, kind)
	}

	rows, err := g.source.ListByCategoryID(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading transactions: %w", err)
	}

	detail := &CategoryDetail{Category: name, YearMonth: ym, Type: kind, Entries: []DetailEntry{}}
	total := decimal.Zero
	monthSet := map[string]struct{}{}
	for _, tx := range rows {
		txYM, ok := dateutils.ToYearMonth(tx.BookingDate)
		if ok {
			monthSet[txYM] = struct{}{}
		}
		if !ok || txYM != ym {
			continue
		}
		amount := g.amount(tx)
		description := tx.Purpose
		if strings.TrimSpace(description) == "" {
			description = tx.Payee
		}
		detail.Entries = append(detail.Entries, DetailEntry{Date: tx.BookingDate, Description: description, Amount: NewMoney(amount)})
		total = total.Add(amount)
	}
	detail.Total = NewMoney(total)
	detail.Count = len(detail.Entries)
	detail.MonthsAvailable = sortedKeys(monthSet)
	return detail, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render encodes a report as indented json or yaml.
func Render(v interface{}, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return out, nil
	case "yaml", "yml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}
