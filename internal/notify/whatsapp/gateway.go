// Package whatsapp delivers assignment notifications over a linked WhatsApp
// device.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
)

// ErrNotRegistered is returned when the recipient has no WhatsApp account.
var ErrNotRegistered = errors.New("whatsapp: number is not registered")

// ErrInvalidNumber is returned when an address has no usable digits.
var ErrInvalidNumber = errors.New("whatsapp: invalid phone number")

// Config holds the device store location and dialling defaults.
type Config struct {
	DataDir            string
	DefaultCountryCode string
	// LogOutput receives the client's diagnostic log. Defaults to stderr so
	// that stdout stays reserved for command output.
	LogOutput io.Writer
}

// Gateway sends plain text messages from the linked device. It satisfies
// notify.Gateway.
type Gateway struct {
	client *whatsmeow.Client
	cfg    Config
	log    zerolog.Logger

	mu        sync.Mutex
	connected bool
}

// New opens the device store under cfg.DataDir and prepares a client. It does
// not connect.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create whatsapp data dir: %w", err)
	}

	logger := newLogger(cfg.LogOutput)

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	g := &Gateway{
		client: whatsmeow.NewClient(device, nil),
		cfg:    cfg,
		log:    logger,
	}
	g.client.AddEventHandler(g.handleEvent)
	return g, nil
}

func newLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Str("component", "WhatsApp").Logger()
}

// Connect links the device. An unpaired device prints pairing QR codes to
// qrOut and blocks until pairing finishes or ctx ends.
func (g *Gateway) Connect(ctx context.Context, qrOut io.Writer) error {
	if g.client.Store.ID != nil {
		if err := g.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return nil
	}

	qrChan, err := g.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("pairing channel: %w", err)
	}
	if err := g.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			if qrOut == nil {
				continue
			}
			q, err := qrcode.New(evt.Code, qrcode.Medium)
			if err != nil {
				fmt.Fprintf(qrOut, "Pairing code: %s\n", evt.Code)
				continue
			}
			fmt.Fprintln(qrOut, q.ToSmallString(false))
			fmt.Fprintln(qrOut, "Scan with WhatsApp: Settings > Linked Devices > Link a Device")
		case "success":
			return nil
		default:
			g.log.Info().Str("event", evt.Event).Msg("pairing event")
			if evt.Error != nil {
				return fmt.Errorf("pairing failed: %w", evt.Error)
			}
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("whatsapp: pairing ended without success")
}

// Disconnect closes the connection.
func (g *Gateway) Disconnect() {
	g.client.Disconnect()
}

// Connected reports whether the client currently holds a session.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Send delivers text to the phone number in address.
func (g *Gateway) Send(ctx context.Context, address, text string) error {
	phone, err := NormalizePhoneNumber(address, g.cfg.DefaultCountryCode)
	if err != nil {
		return err
	}

	resp, err := g.client.IsOnWhatsApp(ctx, []string{"+" + phone})
	if err != nil {
		return fmt.Errorf("verify %s: %w", phone, err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%w: %s", ErrNotRegistered, phone)
	}

	jid := resp[0].JID
	g.log.Debug().Str("jid", jid.String()).Msg("sending notification")

	sent, err := g.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("send to %s: %w", phone, err)
	}
	g.log.Info().Str("message_id", sent.ID).Str("jid", jid.String()).Msg("notification sent")
	return nil
}

func (g *Gateway) handleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		g.setConnected(true)
		g.log.Info().Msg("connected")
	case *events.Disconnected:
		g.setConnected(false)
		g.log.Warn().Msg("disconnected")
	case *events.LoggedOut:
		g.setConnected(false)
		g.log.Warn().Msg("logged out")
	}
}

func (g *Gateway) setConnected(v bool) {
	g.mu.Lock()
	g.connected = v
	g.mu.Unlock()
}

// NormalizePhoneNumber strips formatting from raw and returns international
// digits without a leading plus. A national number with a single leading
// zero gets countryCode in place of the zero; a "00" prefix is treated as the
// international access code.
func NormalizePhoneNumber(raw, countryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	international := strings.HasPrefix(trimmed, "+")

	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case international:
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0") && countryCode != "":
		digits = strings.TrimPrefix(countryCode, "+") + digits[1:]
	}

	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return digits, nil
}
