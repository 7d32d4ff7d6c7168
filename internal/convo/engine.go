package convo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bot-listas/internal/auth"
	"bot-listas/internal/cache"
	"bot-listas/internal/fallback"
	"bot-listas/internal/list"
	"bot-listas/internal/metrics"
	"bot-listas/internal/nlu"
	"bot-listas/internal/repo"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// WhatsAppGateway allows sending WhatsApp messages.
type WhatsAppGateway interface {
	SendText(ctx context.Context, to types.JID, text string) error
}

// Engine routes inbound messages: authorization, reserved commands, lazy
// domain detection and dispatch to the per-domain list operations.
type Engine struct {
	store     *list.Store
	auth      *auth.Set
	extractor *nlu.Extractor
	gateway   WhatsAppGateway
	repo      *repo.Repository
	cache     *cache.Redis
	metrics   *metrics.Metrics
	logger    *slog.Logger
	aiBudget  int64
	aiWindow  time.Duration
}

// Config holds engine tunables.
type Config struct {
	AIGroupBudget  int64
	AIBudgetWindow time.Duration
}

// New creates an engine instance. repo and cache may be nil.
func New(store *list.Store, authSet *auth.Set, extractor *nlu.Extractor, gateway WhatsAppGateway, repository *repo.Repository, redis *cache.Redis, metrics *metrics.Metrics, logger *slog.Logger, cfg Config) *Engine {
	return &Engine{
		store:     store,
		auth:      authSet,
		extractor: extractor,
		gateway:   gateway,
		repo:      repository,
		cache:     redis,
		metrics:   metrics,
		logger:    logger.With("component", "convo"),
		aiBudget:  cfg.AIGroupBudget,
		aiWindow:  cfg.AIBudgetWindow,
	}
}

// ProcessMessage handles one inbound WhatsApp event. A failure in one
// message never poisons the next: unexpected errors collapse into a generic
// apology and group state is only ever mutated with fully validated items.
func (e *Engine) ProcessMessage(ctx context.Context, evt *events.Message) {
	if evt.Info.MessageSource.IsFromMe {
		return
	}
	chat := evt.Info.Chat
	if chat.Server == types.BroadcastServer {
		return
	}

	msgType := detectMessageType(evt)
	e.metrics.WAIncomingMessages.WithLabelValues(msgType).Inc()

	text := extractText(evt)
	if text == "" {
		return
	}

	command := strings.ToLower(strings.TrimSpace(text))
	chatID := chat.String()
	isGroup := chat.Server == types.GroupServer

	switch command {
	case cmdActivate:
		e.auth.Activate(chatID)
		e.metrics.AuthorizedGroups.Set(float64(e.auth.Size()))
		e.respond(ctx, chat, onboardingMessage)
		return
	case cmdDeactivate:
		e.auth.Deactivate(chatID)
		e.metrics.AuthorizedGroups.Set(float64(e.auth.Size()))
		e.respond(ctx, chat, deactivatedMessage)
		return
	}

	// Unauthorized groups are ignored without any reply. Direct chats are
	// always active.
	if isGroup && !e.auth.IsAuthorized(chatID) {
		return
	}

	e.auditIncoming(ctx, evt, msgType, text)

	reply := e.safeHandle(ctx, chatID, command, text, senderName(evt))
	if reply == "" {
		return
	}
	e.respondAndLog(ctx, evt, reply)
}

// safeHandle isolates the per-message pipeline.
func (e *Engine) safeHandle(ctx context.Context, chatID, command, text, sender string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.Errors.WithLabelValues("convo").Inc()
			e.logger.Error("message pipeline panic", "chat", chatID, "panic", r)
			reply = genericErrorMessage
		}
	}()

	out, err := e.handle(ctx, chatID, command, text, sender)
	if err != nil {
		e.metrics.Errors.WithLabelValues("convo").Inc()
		e.logger.Error("message handling failed", "chat", chatID, "error", err)
		return genericErrorMessage
	}
	return out
}

func (e *Engine) handle(ctx context.Context, chatID, command, text, sender string) (string, error) {
	g := e.store.GetOrCreate(ctx, chatID, text)

	switch command {
	case cmdHelp:
		return helpMessage(g.Domain), nil
	case cmdClear:
		count := e.store.Clear(chatID)
		return fmt.Sprintf("🗑️ Lista limpa! %d itens removidos.", count), nil
	case cmdStatus:
		snap, _ := e.store.Snapshot(chatID)
		return list.Status(snap), nil
	case cmdType, cmdInfo:
		return fmt.Sprintf("📊 Este grupo está configurado como: *%s*", g.Domain), nil
	case cmdList:
		snap, _ := e.store.Snapshot(chatID)
		return list.Summary(snap), nil
	}

	domain := g.Domain
	if domain == list.DomainUndetermined {
		// Detection failed on first contact; resolve before any mutation.
		domain = e.detectDomain(ctx, chatID, text)
		e.store.SetDomain(chatID, domain)
	}

	switch domain {
	case list.DomainEntertainment:
		return e.handleEntertainment(ctx, chatID, text, sender)
	case list.DomainExpense:
		return e.handleExpense(ctx, chatID, text, sender)
	case list.DomainShopping:
		return e.handleShopping(ctx, chatID, text)
	default:
		return "", fmt.Errorf("unexpected domain %q for chat %s", domain, chatID)
	}
}

func (e *Engine) detectDomain(ctx context.Context, chatID, text string) list.Domain {
	if e.allowAIRequest(ctx, chatID) {
		if domain, err := e.extractor.DetectDomain(ctx, text); err == nil {
			return domain
		} else {
			e.logger.Warn("AI domain detection failed, using heuristic", "chat", chatID, "error", err)
		}
	}
	e.metrics.FallbackUses.WithLabelValues("detect").Inc()
	return fallback.DetectDomain(text)
}

func (e *Engine) handleEntertainment(ctx context.Context, chatID, text, sender string) (string, error) {
	title := strings.TrimSpace(text)
	if len([]rune(title)) < 2 {
		return "", nil
	}

	if strings.HasPrefix(strings.ToLower(title), "assisti ") {
		name := strings.TrimSpace(title[len("assisti "):])
		if item, found := e.store.MarkWatched(chatID, name); found {
			return fmt.Sprintf("✅ \"%s\" marcado como assistido!", item.Name), nil
		}
		return fmt.Sprintf("ℹ️ \"%s\" não está na lista.", name), nil
	}

	var category list.EntertainmentCategory
	if e.allowAIRequest(ctx, chatID) {
		if cat, err := e.extractor.ClassifyEntertainment(ctx, title); err == nil {
			category = cat
		} else {
			e.logger.Warn("AI categorisation failed, using heuristic", "chat", chatID, "error", err)
		}
	}
	if category == "" {
		e.metrics.FallbackUses.WithLabelValues(string(list.DomainEntertainment)).Inc()
		category = fallback.EntertainmentCategory(title)
	}

	item, added, err := e.store.AddEntertainment(chatID, title, category, sender)
	if err != nil {
		return "", err
	}
	if !added {
		return fmt.Sprintf("ℹ️ \"%s\" já está na lista como %s.", item.Name, item.Category), nil
	}
	e.metrics.ItemsStored.WithLabelValues(string(list.DomainEntertainment)).Inc()
	return fmt.Sprintf("🎬 \"%s\" adicionado como %s!", item.Name, item.Category), nil
}

func (e *Engine) handleExpense(ctx context.Context, chatID, text, sender string) (string, error) {
	var (
		description string
		value       float64
		category    list.ExpenseCategory
		extracted   bool
	)

	if e.allowAIRequest(ctx, chatID) {
		if res, err := e.extractor.ExtractExpense(ctx, text); err == nil {
			description, value, category = res.Description, res.Value, res.Category
			extracted = true
		} else {
			e.logger.Warn("AI expense extraction failed, using heuristic", "chat", chatID, "error", err)
		}
	}
	if !extracted {
		e.metrics.FallbackUses.WithLabelValues(string(list.DomainExpense)).Inc()
		desc, val, ok := fallback.ParseExpense(text)
		if !ok {
			return expenseFormatHint, nil
		}
		description, value = desc, val
		category = fallback.ExpenseCategory(desc)
	}

	count, err := e.store.AddExpense(chatID, description, value, category, sender)
	if err != nil {
		if errors.Is(err, list.ErrInvalidValue) {
			return expenseFormatHint, nil
		}
		return "", err
	}
	e.metrics.ItemsStored.WithLabelValues(string(list.DomainExpense)).Inc()

	// The 1st expense and every 3rd afterwards triggers the full digest.
	if count == 1 || count%3 == 0 {
		snap, _ := e.store.Snapshot(chatID)
		return list.ExpenseSummary(snap.Expenses), nil
	}
	return fmt.Sprintf("✅ Gasto registrado: %s - R$ %.2f (%s)", description, value, category), nil
}

func (e *Engine) handleShopping(ctx context.Context, chatID, text string) (string, error) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "mostrar") || strings.Contains(lower, "lista") {
		snap, _ := e.store.Snapshot(chatID)
		return list.ShoppingSummary(snap.Shopping), nil
	}

	var items []string
	extracted := false
	if e.allowAIRequest(ctx, chatID) {
		if res, err := e.extractor.ExtractShopping(ctx, text); err == nil {
			items = res
			extracted = true
		} else {
			e.logger.Warn("AI shopping extraction failed, using heuristic", "chat", chatID, "error", err)
		}
	}
	if !extracted {
		e.metrics.FallbackUses.WithLabelValues(string(list.DomainShopping)).Inc()
		items = fallback.SplitShopping(text)
		if len(items) == 0 {
			return shoppingFormatHint, nil
		}
	}
	if len(items) == 0 {
		return shoppingEmptyHint, nil
	}

	added, total, err := e.store.AddShopping(chatID, items)
	if err != nil {
		return "", err
	}
	if added == 0 {
		return "ℹ️ Todos os itens já estão na lista!", nil
	}
	e.metrics.ItemsStored.WithLabelValues(string(list.DomainShopping)).Add(float64(added))
	return fmt.Sprintf("🛒 %d item(s) adicionado(s)! Lista atual: %d itens.", added, total), nil
}

// allowAIRequest enforces a per-chat budget on classifier calls when redis
// is configured. Over budget or on cache trouble the answer errs towards
// the cheaper side.
func (e *Engine) allowAIRequest(ctx context.Context, chatID string) bool {
	if e.cache == nil {
		return true
	}
	key := fmt.Sprintf("rl:ai:%s", chatID)
	client := e.cache.Client()
	res := client.Incr(ctx, key)
	if res.Err() != nil {
		e.logger.Warn("rate limit incr failed", "error", res.Err())
		return true
	}
	if res.Val() == 1 {
		client.Expire(ctx, key, e.aiWindow)
	}
	return res.Val() <= e.aiBudget
}

func (e *Engine) respondAndLog(ctx context.Context, evt *events.Message, text string) {
	if err := e.respond(ctx, evt.Info.Chat, text); err != nil {
		return
	}
	e.auditOutgoing(ctx, evt, text)
}

func (e *Engine) respond(ctx context.Context, to types.JID, text string) error {
	if err := e.gateway.SendText(ctx, to, text); err != nil {
		e.metrics.Errors.WithLabelValues("gateway").Inc()
		e.logger.Error("failed sending reply", "chat", to.String(), "error", err)
		return err
	}
	return nil
}

func (e *Engine) auditIncoming(ctx context.Context, evt *events.Message, msgType, text string) {
	if e.repo == nil {
		return
	}
	user, err := e.repo.UpsertUserByWA(ctx, evt.Info.Sender.String(), strings.TrimSpace(evt.Info.PushName))
	if err != nil {
		e.logger.Warn("failed upserting user", "error", err)
		return
	}
	if err := e.repo.InsertMessage(ctx, repo.MessageRecord{
		UserID:    user.ID,
		ChatJID:   evt.Info.Chat.String(),
		Direction: "incoming",
		Kind:      msgType,
		Content:   text,
	}); err != nil {
		e.logger.Warn("failed logging incoming message", "error", err)
	}
}

func (e *Engine) auditOutgoing(ctx context.Context, evt *events.Message, text string) {
	if e.repo == nil {
		return
	}
	user, err := e.repo.UpsertUserByWA(ctx, evt.Info.Sender.String(), "")
	if err != nil {
		return
	}
	if err := e.repo.InsertMessage(ctx, repo.MessageRecord{
		UserID:    user.ID,
		ChatJID:   evt.Info.Chat.String(),
		Direction: "outgoing",
		Kind:      "reply",
		Content:   text,
	}); err != nil {
		e.logger.Warn("failed logging outgoing message", "error", err)
	}
}

func detectMessageType(evt *events.Message) string {
	msg := evt.Message
	switch {
	case msg.GetConversation() != "":
		return "text"
	case msg.ExtendedTextMessage != nil:
		return "extended_text"
	case msg.ImageMessage != nil:
		return "image"
	case msg.VideoMessage != nil:
		return "video"
	case msg.AudioMessage != nil:
		return "audio"
	case msg.DocumentMessage != nil:
		return "document"
	default:
		return "unknown"
	}
}

func extractText(evt *events.Message) string {
	msg := evt.Message
	switch {
	case msg.GetConversation() != "":
		return strings.TrimSpace(msg.GetConversation())
	case msg.ExtendedTextMessage != nil:
		return strings.TrimSpace(msg.GetExtendedTextMessage().GetText())
	default:
		return ""
	}
}

func senderName(evt *events.Message) string {
	if name := strings.TrimSpace(evt.Info.PushName); name != "" {
		return name
	}
	return evt.Info.Sender.User
}
