package convo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"bot-listas/internal/auth"
	"bot-listas/internal/list"
	"bot-listas/internal/metrics"
	"bot-listas/internal/nlu"
)

type fakeGateway struct {
	sent []string
}

func (f *fakeGateway) SendText(ctx context.Context, to types.JID, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeGateway) lastReply() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type funcCompleter func(system, prompt string) (string, error)

func (f funcCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(system, prompt)
}

// unavailableCompleter simulates the classifier being unreachable.
var unavailableCompleter = funcCompleter(func(system, prompt string) (string, error) {
	return "", fmt.Errorf("%w: down", nlu.ErrUnavailable)
})

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, completer nlu.Completer) (*Engine, *fakeGateway) {
	t.Helper()
	logger := testLogger()
	m := metrics.New("test", prometheus.NewRegistry())
	extractor := nlu.NewExtractor(completer, logger)
	store := list.NewStore(NewDomainDetector(extractor, m, logger), logger)
	gateway := &fakeGateway{}
	engine := New(store, auth.NewSet(), extractor, gateway, nil, nil, m, logger, Config{
		AIGroupBudget:  1000,
		AIBudgetWindow: time.Minute,
	})
	return engine, gateway
}

func newEvent(chat types.JID, text string) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:   chat,
				Sender: types.NewJID("5511999990000", types.DefaultUserServer),
			},
			PushName: "Ana",
		},
		Message: &waProto.Message{Conversation: proto.String(text)},
	}
}

func dmJID() types.JID {
	return types.NewJID("5511999990000", types.DefaultUserServer)
}

func TestEntertainmentFlow(t *testing.T) {
	completer := funcCompleter(func(system, prompt string) (string, error) {
		if strings.Contains(system, "categorização de conversas") {
			return "entretenimento", nil
		}
		return "filme", nil
	})
	engine, gateway := newTestEngine(t, completer)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "Interestelar"))
	reply := gateway.lastReply()
	if !strings.Contains(reply, "Interestelar") || !strings.Contains(reply, "filme") {
		t.Fatalf("first add reply = %q", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "Interestelar"))
	reply = gateway.lastReply()
	if !strings.Contains(reply, "já está na lista") || !strings.Contains(reply, "filme") {
		t.Fatalf("duplicate reply = %q, want already-in-list with stored category", reply)
	}
	if len(gateway.sent) != 2 {
		t.Errorf("expected 2 replies, got %d", len(gateway.sent))
	}
}

func TestMarkWatchedFlow(t *testing.T) {
	completer := funcCompleter(func(system, prompt string) (string, error) {
		if strings.Contains(system, "categorização de conversas") {
			return "entretenimento", nil
		}
		return "série", nil
	})
	engine, gateway := newTestEngine(t, completer)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "Dark"))
	engine.ProcessMessage(context.Background(), newEvent(chat, "assisti Dark"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "marcado como assistido") {
		t.Fatalf("reply = %q", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "!lista"))
	reply := gateway.lastReply()
	if !strings.Contains(reply, "Já vistos (1):") {
		t.Fatalf("list after watching = %q", reply)
	}
}

func TestExpenseFallbackFlow(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	// "mercado 100" carries a digit, so the heuristic detector lands on
	// the expense domain; the first append renders the full digest.
	engine.ProcessMessage(context.Background(), newEvent(chat, "mercado 100"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "RESUMO DE GASTOS") {
		t.Fatalf("first expense reply = %q, want the full digest", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "uber 15"))
	reply := gateway.lastReply()
	if !strings.Contains(reply, "uber - R$ 15.00 (transporte)") {
		t.Fatalf("second expense reply = %q, want single-line ack", reply)
	}
}

func TestExpenseDigestPositions(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	digestAt := map[int]bool{1: true, 3: true, 6: true, 9: true}
	for i := 1; i <= 9; i++ {
		engine.ProcessMessage(context.Background(), newEvent(chat, fmt.Sprintf("gasto %d", i)))
		isDigest := strings.Contains(gateway.lastReply(), "RESUMO DE GASTOS")
		if isDigest != digestAt[i] {
			t.Errorf("position %d: digest=%v, want %v (reply %q)", i, isDigest, digestAt[i], gateway.lastReply())
		}
	}
}

func TestExpenseRejectionNoMutation(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "uber 15"))
	engine.ProcessMessage(context.Background(), newEvent(chat, "jantar"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "Formato") {
		t.Fatalf("reply = %q, want format hint", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "!status"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "1 gastos") {
		t.Fatalf("status = %q, rejected input must not be stored", reply)
	}
}

func TestShoppingFallbackFlow(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "leite, pão, ovos"))
	reply := gateway.lastReply()
	if !strings.Contains(reply, "3 item(s) adicionado(s)") || !strings.Contains(reply, "3 itens") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestShoppingDedupFlow(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "leite, leite, pão"))
	reply := gateway.lastReply()
	if !strings.Contains(reply, "2 item(s) adicionado(s)") {
		t.Fatalf("reply = %q, want 2 distinct items added", reply)
	}
}

func TestShoppingAIEmptySet(t *testing.T) {
	completer := funcCompleter(func(system, prompt string) (string, error) {
		if strings.Contains(system, "categorização de conversas") {
			return "compras", nil
		}
		return `{"itens":[]}`, nil
	})
	engine, gateway := newTestEngine(t, completer)

	engine.ProcessMessage(context.Background(), newEvent(dmJID(), "hmm o que será"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "Não identifiquei itens") {
		t.Fatalf("reply = %q, want the recognized-but-empty hint", reply)
	}
}

func TestAuthorizationGate(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	group := types.NewJID("120363041234567890", types.GroupServer)

	// Unauthorized group: no reply at all, not even an error.
	engine.ProcessMessage(context.Background(), newEvent(group, "leite, pão"))
	if len(gateway.sent) != 0 {
		t.Fatalf("unauthorized group produced replies: %v", gateway.sent)
	}

	engine.ProcessMessage(context.Background(), newEvent(group, "!ativar"))
	if len(gateway.sent) != 1 {
		t.Fatalf("activation must reply, got %v", gateway.sent)
	}

	engine.ProcessMessage(context.Background(), newEvent(group, "leite, pão"))
	if len(gateway.sent) != 2 {
		t.Fatalf("authorized group must be processed, got %v", gateway.sent)
	}

	engine.ProcessMessage(context.Background(), newEvent(group, "!desativar"))
	engine.ProcessMessage(context.Background(), newEvent(group, "ovos"))
	if len(gateway.sent) != 3 {
		t.Fatalf("deactivated group must be silent again, got %v", gateway.sent)
	}
}

func TestDirectChatAlwaysActive(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)

	engine.ProcessMessage(context.Background(), newEvent(dmJID(), "leite, pão"))
	if len(gateway.sent) != 1 {
		t.Fatalf("direct chat must not require activation, got %v", gateway.sent)
	}
}

func TestBroadcastIgnored(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	broadcast := types.NewJID("status", types.BroadcastServer)

	engine.ProcessMessage(context.Background(), newEvent(broadcast, "qualquer coisa"))
	if len(gateway.sent) != 0 {
		t.Fatalf("broadcast produced replies: %v", gateway.sent)
	}
}

func TestOwnMessagesIgnored(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	evt := newEvent(dmJID(), "leite")
	evt.Info.MessageSource.IsFromMe = true

	engine.ProcessMessage(context.Background(), evt)
	if len(gateway.sent) != 0 {
		t.Fatalf("own message produced replies: %v", gateway.sent)
	}
}

func TestReservedCommands(t *testing.T) {
	engine, gateway := newTestEngine(t, unavailableCompleter)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "leite, pão"))

	engine.ProcessMessage(context.Background(), newEvent(chat, "!Tipo"))
	if reply := gateway.lastReply(); !strings.Contains(reply, string(list.DomainShopping)) {
		t.Errorf("!tipo reply = %q", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "!ajuda"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "!limpar") {
		t.Errorf("!ajuda reply = %q", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "!limpar"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "2 itens removidos") {
		t.Errorf("!limpar reply = %q", reply)
	}

	engine.ProcessMessage(context.Background(), newEvent(chat, "!status"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "0 itens") {
		t.Errorf("!status after clear = %q", reply)
	}
}

func TestExpenseAIPathStoresValidatedItem(t *testing.T) {
	completer := funcCompleter(func(system, prompt string) (string, error) {
		if strings.Contains(system, "categorização de conversas") {
			return "gastos", nil
		}
		return `{"descricao":"padaria","valor":12.5,"categoria":"comida"}`, nil
	})
	engine, gateway := newTestEngine(t, completer)
	chat := dmJID()

	engine.ProcessMessage(context.Background(), newEvent(chat, "gastei na padaria 12,50"))
	if reply := gateway.lastReply(); !strings.Contains(reply, "RESUMO DE GASTOS") || !strings.Contains(reply, "COMIDA") {
		t.Fatalf("reply = %q", reply)
	}
}
