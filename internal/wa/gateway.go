// Package wa wraps the whatsmeow client: session storage, QR pairing and
// the event fan-in to the conversation engine.
package wa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	_ "modernc.org/sqlite" // session store driver
)

// MessageHandler consumes inbound message events.
type MessageHandler interface {
	ProcessMessage(ctx context.Context, evt *events.Message)
}

// Gateway is the WhatsApp transport adapter.
type Gateway struct {
	client  *whatsmeow.Client
	logger  *slog.Logger
	handler MessageHandler
}

// New opens (or creates) the local session store and builds the client.
func New(ctx context.Context, storePath, waLogLevel string, logger *slog.Logger) (*Gateway, error) {
	if dir := filepath.Dir(storePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dbLog := waLog.Stdout("Database", waLogLevel, false)
	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", storePath), dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", waLogLevel, false))
	return &Gateway{
		client: client,
		logger: logger.With("component", "wa"),
	}, nil
}

// SetHandler registers the engine before Connect.
func (g *Gateway) SetHandler(h MessageHandler) {
	g.handler = h
}

// Connect starts the session. An unpaired device prints QR codes to the
// log until one is scanned.
func (g *Gateway) Connect(ctx context.Context) error {
	g.client.AddEventHandler(g.onEvent)

	if g.client.Store.ID == nil {
		qrChan, err := g.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := g.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					g.logger.Info("scan this QR code with WhatsApp", "code", evt.Code)
				} else {
					g.logger.Info("QR pairing event", "event", evt.Event)
				}
			}
		}()
		return nil
	}
	if err := g.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (g *Gateway) onEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		if g.handler == nil {
			return
		}
		go g.handler.ProcessMessage(context.Background(), v)
	case *events.Connected:
		g.logger.Info("whatsapp connected")
	case *events.LoggedOut:
		g.logger.Warn("session logged out, remove the store and pair again")
	}
}

// SendText sends a plain text message.
func (g *Gateway) SendText(ctx context.Context, to types.JID, text string) error {
	_, err := g.client.SendMessage(ctx, to, &waProto.Message{
		Conversation: proto.String(text),
	})
	return err
}

// Disconnect tears the session down.
func (g *Gateway) Disconnect() {
	g.client.Disconnect()
}
