package list

import (
	"strings"
	"time"
)

// Domain classifies what a group's conversation is about.
type Domain string

const (
	DomainEntertainment Domain = "entretenimento"
	DomainExpense       Domain = "gastos"
	DomainShopping      Domain = "compras"
	DomainUndetermined  Domain = "indefinido"
)

// ParseDomain maps a free-form label onto the closed domain set.
// Unknown labels default to DomainShopping, the least committing choice.
func ParseDomain(label string) Domain {
	switch Domain(strings.ToLower(strings.TrimSpace(label))) {
	case DomainEntertainment:
		return DomainEntertainment
	case DomainExpense:
		return DomainExpense
	case DomainShopping:
		return DomainShopping
	default:
		return DomainShopping
	}
}

// EntertainmentCategory is the closed category set for watch/read lists.
type EntertainmentCategory string

const (
	CategoryFilme       EntertainmentCategory = "filme"
	CategorySerie       EntertainmentCategory = "série"
	CategoryDesenho     EntertainmentCategory = "desenho"
	CategoryDocumentary EntertainmentCategory = "documentário"
	CategoryAnime       EntertainmentCategory = "anime"
	CategoryLivro       EntertainmentCategory = "livro"
	CategoryOutros      EntertainmentCategory = "outros"
)

// ParseEntertainmentCategory normalises a classifier label into the closed
// set; anything unrecognised becomes "outros" so the AI path and the
// heuristic path cannot drift apart.
func ParseEntertainmentCategory(label string) EntertainmentCategory {
	switch EntertainmentCategory(strings.ToLower(strings.TrimSpace(label))) {
	case CategoryFilme:
		return CategoryFilme
	case CategorySerie, "serie":
		return CategorySerie
	case CategoryDesenho:
		return CategoryDesenho
	case CategoryDocumentary, "documentario":
		return CategoryDocumentary
	case CategoryAnime:
		return CategoryAnime
	case CategoryLivro:
		return CategoryLivro
	default:
		return CategoryOutros
	}
}

// ExpenseCategory is the closed category set for the expense ledger.
type ExpenseCategory string

const (
	ExpenseMercado    ExpenseCategory = "mercado"
	ExpenseTransporte ExpenseCategory = "transporte"
	ExpenseLazer      ExpenseCategory = "lazer"
	ExpenseComida     ExpenseCategory = "comida"
	ExpenseSaude      ExpenseCategory = "saúde"
	ExpenseEducacao   ExpenseCategory = "educação"
	ExpenseContas     ExpenseCategory = "contas"
	ExpenseOutros     ExpenseCategory = "outros"
)

// ParseExpenseCategory normalises a classifier label into the closed set.
func ParseExpenseCategory(label string) ExpenseCategory {
	switch ExpenseCategory(strings.ToLower(strings.TrimSpace(label))) {
	case ExpenseMercado:
		return ExpenseMercado
	case ExpenseTransporte:
		return ExpenseTransporte
	case ExpenseLazer:
		return ExpenseLazer
	case ExpenseComida:
		return ExpenseComida
	case ExpenseSaude, "saude":
		return ExpenseSaude
	case ExpenseEducacao, "educacao":
		return ExpenseEducacao
	case ExpenseContas:
		return ExpenseContas
	default:
		return ExpenseOutros
	}
}

// EntertainmentItem is one entry in a watch/read backlog.
type EntertainmentItem struct {
	Name      string
	Category  EntertainmentCategory
	AddedBy   string
	AddedAt   time.Time
	Watched   bool
	WatchedAt *time.Time
}

// ExpenseItem is one entry in an expense ledger. Value is always finite
// and non-negative; the store rejects anything else before it is appended.
type ExpenseItem struct {
	Description string
	Value       float64
	Category    ExpenseCategory
	AddedBy     string
	AddedAt     time.Time
}

// ShoppingItem is a plain label, deduplicated case-insensitively.
type ShoppingItem string
