// Package fallback holds the deterministic extraction rules used when the
// classifier is unavailable or returns something unusable. Everything here
// runs locally, with no network and no allocation-heavy work.
package fallback

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"bot-listas/internal/list"
)

var (
	digitRegex         = regexp.MustCompile(`\d`)
	expenseDescFirstRe = regexp.MustCompile(`^(.+?)\s+([\d.,]+)$`)
	expenseDescLastRe  = regexp.MustCompile(`^([\d.,]+)\s+(.+)$`)
)

// DetectDomain guesses a group's domain from a single message.
// Entertainment markers win, then expense markers or any digit, then the
// shopping default.
func DetectDomain(text string) list.Domain {
	lower := strings.ToLower(text)
	for _, kw := range []string{"assistir", "filme", "série", "serie"} {
		if strings.Contains(lower, kw) {
			return list.DomainEntertainment
		}
	}
	if strings.Contains(lower, "gasto") || strings.Contains(lower, "gastar") || digitRegex.MatchString(text) {
		return list.DomainExpense
	}
	return list.DomainShopping
}

// categoryRule associates containment keywords with a category. Table order
// is the tie-break rule: first match wins.
type categoryRule[T ~string] struct {
	keywords []string
	category T
}

var entertainmentRules = []categoryRule[list.EntertainmentCategory]{
	{[]string{"série", "serie", "temp", "season"}, list.CategorySerie},
	{[]string{"filme", "movie"}, list.CategoryFilme},
	{[]string{"desenho", "anime"}, list.CategoryDesenho},
	{[]string{"doc", "documentário"}, list.CategoryDocumentary},
	{[]string{"livro", "book"}, list.CategoryLivro},
}

// EntertainmentCategory categorises a title by keyword containment.
func EntertainmentCategory(title string) list.EntertainmentCategory {
	lower := strings.ToLower(title)
	for _, rule := range entertainmentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return list.CategoryOutros
}

var expenseRules = []categoryRule[list.ExpenseCategory]{
	{[]string{"uber", "táxi", "taxi", "transporte"}, list.ExpenseTransporte},
	{[]string{"mercado", "super", "compras"}, list.ExpenseMercado},
	{[]string{"restaurant", "comida", "pizza", "jantar", "almoço"}, list.ExpenseComida},
	{[]string{"cinema", "lazer"}, list.ExpenseLazer},
	{[]string{"farmacia", "farmácia", "saúde"}, list.ExpenseSaude},
	{[]string{"curso", "livro", "educação"}, list.ExpenseEducacao},
	{[]string{"conta", "luz", "água", "internet", "aluguel"}, list.ExpenseContas},
}

// ExpenseCategory categorises an expense description by keyword containment.
func ExpenseCategory(description string) list.ExpenseCategory {
	lower := strings.ToLower(description)
	for _, rule := range expenseRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return list.ExpenseOutros
}

// ParseExpense extracts a description and a value from "descrição valor" or
// "valor descrição". A comma decimal separator is accepted. The boolean is
// false when no well-formed numeric token is found; nothing should be stored
// in that case.
func ParseExpense(text string) (description string, value float64, ok bool) {
	text = strings.TrimSpace(text)
	var numToken string
	if m := expenseDescFirstRe.FindStringSubmatch(text); m != nil {
		description, numToken = strings.TrimSpace(m[1]), m[2]
	} else if m := expenseDescLastRe.FindStringSubmatch(text); m != nil {
		numToken, description = m[1], strings.TrimSpace(m[2])
	} else {
		return "", 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(numToken, ",", "."), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return "", 0, false
	}
	return description, value, true
}

// SplitShopping splits a raw message on commas, trimming entries and
// dropping empty ones. May return an empty slice.
func SplitShopping(text string) []string {
	parts := strings.Split(text, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
