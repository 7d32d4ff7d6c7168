package list

import (
	"fmt"
	"sort"
	"strings"
)

// Summary renders a human-readable digest of the group's current list.
func Summary(g Group) string {
	switch g.Domain {
	case DomainExpense:
		return ExpenseSummary(g.Expenses)
	case DomainEntertainment:
		return EntertainmentSummary(g.Entertainment)
	case DomainShopping:
		return ShoppingSummary(g.Shopping)
	default:
		return "📊 Este grupo ainda não tem um tipo definido. Envie uma mensagem para começar!"
	}
}

// ExpenseSummary groups expenses by category, with per-category subtotals
// and percentages of the grand total, sorted by subtotal descending.
func ExpenseSummary(items []ExpenseItem) string {
	if len(items) == 0 {
		return "💰 Nenhum gasto registrado ainda!"
	}

	totals := make(map[ExpenseCategory]float64)
	var total float64
	for _, it := range items {
		totals[it.Category] += it.Value
		total += it.Value
	}

	categories := make([]ExpenseCategory, 0, len(totals))
	for cat := range totals {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		if totals[categories[i]] != totals[categories[j]] {
			return totals[categories[i]] > totals[categories[j]]
		}
		return categories[i] < categories[j]
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *RESUMO DE GASTOS* - Total: R$ %.2f\n", total)
	fmt.Fprintf(&sb, "📊 %d gastos registrados\n\n", len(items))
	for _, cat := range categories {
		pct := 0.0
		if total > 0 {
			pct = totals[cat] / total * 100
		}
		fmt.Fprintf(&sb, "📁 *%s* - R$ %.2f (%.1f%%)\n", strings.ToUpper(string(cat)), totals[cat], pct)
	}
	sb.WriteString("\n💡 Adicione gastos descrevendo o que foi e o valor")
	return sb.String()
}

// EntertainmentSummary partitions the backlog into pending and watched.
func EntertainmentSummary(items []EntertainmentItem) string {
	if len(items) == 0 {
		return "🎬 Lista de entretenimento vazia!"
	}

	var pending, watched []EntertainmentItem
	for _, it := range items {
		if it.Watched {
			watched = append(watched, it)
		} else {
			pending = append(pending, it)
		}
	}

	var sb strings.Builder
	sb.WriteString("🎬 *LISTA DE ENTRETENIMENTO*\n\n")
	fmt.Fprintf(&sb, "📌 Para ver (%d):\n", len(pending))
	for i, it := range pending {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, it.Name, it.Category)
	}
	if len(watched) > 0 {
		fmt.Fprintf(&sb, "\n✅ Já vistos (%d):\n", len(watched))
		for i, it := range watched {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, it.Name)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ShoppingSummary renders a numbered enumeration of the shopping list.
func ShoppingSummary(items []ShoppingItem) string {
	if len(items) == 0 {
		return "🛒 Lista de compras vazia!"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *LISTA DE COMPRAS* (%d itens)\n\n", len(items))
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Status renders the short per-group status line.
func Status(g Group) string {
	switch g.Domain {
	case DomainEntertainment:
		counts := make(map[EntertainmentCategory]int)
		order := make([]EntertainmentCategory, 0, len(counts))
		for _, it := range g.Entertainment {
			if counts[it.Category] == 0 {
				order = append(order, it.Category)
			}
			counts[it.Category]++
		}
		parts := make([]string, 0, len(order))
		for _, cat := range order {
			parts = append(parts, fmt.Sprintf("%s: %d", cat, counts[cat]))
		}
		return fmt.Sprintf("🎬 Status: %d itens (%s)", len(g.Entertainment), strings.Join(parts, ", "))
	case DomainExpense:
		var total float64
		for _, it := range g.Expenses {
			total += it.Value
		}
		return fmt.Sprintf("💰 Status: %d gastos - Total: R$ %.2f", len(g.Expenses), total)
	case DomainShopping:
		return fmt.Sprintf("🛒 Status: %d itens na lista de compras", len(g.Shopping))
	default:
		return "📊 Status: tipo do grupo ainda não definido"
	}
}
