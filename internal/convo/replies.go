package convo

import "bot-listas/internal/list"

// Reserved commands, matched case-insensitively after trimming.
const (
	cmdActivate   = "!ativar"
	cmdDeactivate = "!desativar"
	cmdHelp       = "!ajuda"
	cmdStatus     = "!status"
	cmdClear      = "!limpar"
	cmdType       = "!tipo"
	cmdInfo       = "!info"
	cmdList       = "!lista"
)

const onboardingMessage = `🤖 Olá! Agora estou ativo aqui.

Detecto automaticamente se este grupo é de entretenimento, gastos ou compras e organizo as listas pra vocês.

Digite !ajuda para ver os comandos.`

const deactivatedMessage = "👋 Bot desativado neste grupo. Até logo!"

const genericErrorMessage = "❌ Erro ao processar mensagem. Tente novamente."

const expenseFormatHint = "💰 Formato: 'descrição valor' \nEx: 'uber 15' ou 'pizza 40,50'"

const shoppingFormatHint = "🛒 Formato: 'item1, item2, item3'"

const shoppingEmptyHint = "🛒 Não identifiquei itens na sua mensagem. Tente: 'leite, pão, ovos'"

const baseHelp = `🤖 *BOT DE LISTAS* - Usa IA para categorização inteligente

Comandos:
!ajuda - Mostra esta mensagem
!limpar - Limpa os dados do grupo
!status - Mostra status atual
!tipo - Mostra o tipo do grupo
!lista - Mostra a lista atual
!desativar - Desativa o bot no grupo

💡 Funciona automaticamente - apenas envie suas mensagens!`

func helpMessage(domain list.Domain) string {
	switch domain {
	case list.DomainEntertainment:
		return baseHelp + `

🎬 *Entretenimento*: Envie nomes de filmes, séries, etc.
A IA categoriza automaticamente!`
	case list.DomainExpense:
		return baseHelp + `

💰 *Gastos*: Descreva gastos com valores
Ex: "jantar 80", "uber 25", "mercado 150"`
	case list.DomainShopping:
		return baseHelp + `

🛒 *Compras*: Liste itens para comprar
Ex: "leite, pão, ovos" ou "preciso comprar café e açúcar"`
	default:
		return baseHelp
	}
}
