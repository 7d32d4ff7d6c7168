package nlu

const (
	domainSystemPrompt        = "Você é um especialista em categorização de conversas."
	entertainmentSystemPrompt = "Você é um especialista em categorização de conteúdo de entretenimento."
	expenseSystemPrompt       = "Você é um especialista em análise de gastos financeiros."
	shoppingSystemPrompt      = "Você é um especialista em organização de listas de compras."
)

const domainPromptTemplate = `Analise esta mensagem e determine se é sobre:
1. "entretenimento" - filmes, séries, livros, coisas para assistir/ler
2. "gastos" - despesas, dinheiro, compras com valores
3. "compras" - lista de compras, mercado, itens para comprar

Mensagem: %q

Responda APENAS com uma palavra: "entretenimento", "gastos" ou "compras".`

const entertainmentPromptTemplate = `Categorize este conteúdo de entretenimento em UMA destas categorias: filme, série, desenho, documentário, anime, livro, outros.

Conteúdo: %q

Responda APENAS com o nome da categoria, sem explicações.`

const expensePromptTemplate = `Analise esta mensagem de gasto e extraia: descrição e valor. Também categorize em UMA destas: mercado, transporte, lazer, comida, saúde, educação, contas, outros.

Mensagem: %q

Responda no formato JSON:
{
  "descricao": "descrição extraída",
  "valor": número,
  "categoria": "categoria"
}

Apenas o JSON, sem outros textos.`

const shoppingPromptTemplate = `Esta é uma lista de compras. Identifique cada item individualmente. Se for uma lista com vírgulas, separe os itens. Se for uma frase, extraia os itens mencionados.

Mensagem: %q

Responda com uma lista JSON de itens:
{
  "itens": ["item1", "item2", "item3"]
}

Apenas o JSON, sem outros textos.`
