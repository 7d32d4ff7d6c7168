package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"bot-listas/internal/list"
)

// Completer is the classifier call surface; *Client satisfies it and tests
// substitute a stub.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Extractor turns free text into validated structured records through the
// classifier. Every method returns either a fully validated value or an
// error wrapping ErrUnavailable/ErrInvalid; partially populated payloads
// never cross this boundary.
type Extractor struct {
	ai     Completer
	logger *slog.Logger
}

// NewExtractor creates the extraction pipeline on top of a Completer.
func NewExtractor(ai Completer, logger *slog.Logger) *Extractor {
	return &Extractor{ai: ai, logger: logger.With("component", "extract")}
}

// DetectDomain asks the classifier which domain a message belongs to. A
// label outside the closed set falls back to the shopping default, which is
// the least committing interpretation.
func (e *Extractor) DetectDomain(ctx context.Context, text string) (list.Domain, error) {
	raw, err := e.ai.Complete(ctx, domainSystemPrompt, fmt.Sprintf(domainPromptTemplate, text))
	if err != nil {
		return list.DomainUndetermined, err
	}
	domain := list.ParseDomain(raw)
	e.logger.Debug("domain detected", "domain", domain)
	return domain, nil
}

// ClassifyEntertainment asks for a category label for a title.
func (e *Extractor) ClassifyEntertainment(ctx context.Context, title string) (list.EntertainmentCategory, error) {
	raw, err := e.ai.Complete(ctx, entertainmentSystemPrompt, fmt.Sprintf(entertainmentPromptTemplate, title))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty category", ErrInvalid)
	}
	return list.ParseEntertainmentCategory(raw), nil
}

// ExpenseExtraction is a validated expense decomposition.
type ExpenseExtraction struct {
	Description string
	Value       float64
	Category    list.ExpenseCategory
}

type expensePayload struct {
	Descricao string      `json:"descricao"`
	Valor     json.Number `json:"valor"`
	Categoria string      `json:"categoria"`
}

// ExtractExpense asks for a description/value/category decomposition and
// validates all three fields before accepting.
func (e *Extractor) ExtractExpense(ctx context.Context, text string) (ExpenseExtraction, error) {
	raw, err := e.ai.Complete(ctx, expenseSystemPrompt, fmt.Sprintf(expensePromptTemplate, text))
	if err != nil {
		return ExpenseExtraction{}, err
	}
	return parseExpensePayload(raw)
}

func parseExpensePayload(raw string) (ExpenseExtraction, error) {
	var payload expensePayload
	if err := json.Unmarshal([]byte(normaliseJSON(raw)), &payload); err != nil {
		return ExpenseExtraction{}, fmt.Errorf("%w: parse expense json: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(payload.Descricao) == "" {
		return ExpenseExtraction{}, fmt.Errorf("%w: missing descricao", ErrInvalid)
	}
	if payload.Valor == "" {
		return ExpenseExtraction{}, fmt.Errorf("%w: missing valor", ErrInvalid)
	}
	if strings.TrimSpace(payload.Categoria) == "" {
		return ExpenseExtraction{}, fmt.Errorf("%w: missing categoria", ErrInvalid)
	}
	value, err := payload.Valor.Float64()
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return ExpenseExtraction{}, fmt.Errorf("%w: valor is not a finite non-negative number", ErrInvalid)
	}
	return ExpenseExtraction{
		Description: strings.TrimSpace(payload.Descricao),
		Value:       value,
		Category:    list.ParseExpenseCategory(payload.Categoria),
	}, nil
}

type shoppingPayload struct {
	Itens []string `json:"itens"`
}

// ExtractShopping asks for a JSON enumeration of distinct items. An empty
// resulting set is a valid outcome meaning "no items recognized".
func (e *Extractor) ExtractShopping(ctx context.Context, text string) ([]string, error) {
	raw, err := e.ai.Complete(ctx, shoppingSystemPrompt, fmt.Sprintf(shoppingPromptTemplate, text))
	if err != nil {
		return nil, err
	}
	return parseShoppingPayload(raw)
}

func parseShoppingPayload(raw string) ([]string, error) {
	var payload shoppingPayload
	if err := json.Unmarshal([]byte(normaliseJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: parse shopping json: %v", ErrInvalid, err)
	}
	if payload.Itens == nil {
		return nil, fmt.Errorf("%w: missing itens array", ErrInvalid)
	}
	items := make([]string, 0, len(payload.Itens))
	for _, it := range payload.Itens {
		if trimmed := strings.TrimSpace(it); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items, nil
}

// normaliseJSON digs the JSON object out of a completion that may carry
// code fences or surrounding prose, and balances truncated braces.
func normaliseJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		if strings.HasPrefix(strings.ToLower(s), "json") {
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[idx+1:]
			} else {
				s = ""
			}
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		if start := strings.Index(s, "{"); start >= 0 {
			if end := strings.LastIndex(s, "}"); end >= start {
				s = s[start : end+1]
			}
		}
	}
	openBraces := strings.Count(s, "{")
	closeBraces := strings.Count(s, "}")
	if openBraces > closeBraces {
		s = s + strings.Repeat("}", openBraces-closeBraces)
	}
	return strings.TrimSpace(s)
}
