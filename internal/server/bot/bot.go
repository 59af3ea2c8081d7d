// Package bot implements the Telegram front end. Group members place
// and adjust orders by sending plain "item quantity" messages; a small
// set of slash commands exposes the remaining stock, the sender's own
// order and the sender's lifetime statistics.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ordrebog/ordrebog/internal/common"
	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/server/services"
)

const helpText = `Skriv "vare antall" for å bestille, f.eks. "9mm 2".
Antall erstatter din forrige bestilling av varen; 0 fjerner den.
/stock  viser hva som er igjen
/order  viser din bestilling
/stats  viser din statistikk`

// Bot runs the Telegram update loop against the order ledger.
type Bot struct {
	api    *tgbotapi.BotAPI
	ledger *services.Ledger
	stats  *services.Stats
	access *services.Access
	chatID int64
	logger logging.Logger
}

// NewBot authorizes against the Telegram API. chatID restricts the bot
// to one group chat; 0 accepts messages from any chat.
func NewBot(token string, chatID int64, ledger *services.Ledger, stats *services.Stats,
	access *services.Access, logger logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization: %w", err)
	}
	return &Bot{
		api:    api,
		ledger: ledger,
		stats:  stats,
		access: access,
		chatID: chatID,
		logger: logger.With("module", "bot"),
	}, nil
}

// Run consumes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info(ctx, "bot started", "username", b.api.Self.UserName)
	b.Announce("Ordrebog er på nett. Skriv /help for kommandoer.")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// Announce posts a message to the configured group chat. Used for admin
// notifications such as session open and close. A zero chat ID makes it
// a no-op.
func (b *Bot) Announce(text string) {
	if b.chatID == 0 {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Error(context.Background(), "announce failed", "error", err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if b.chatID != 0 && msg.Chat.ID != b.chatID {
		return
	}
	if msg.From == nil {
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	displayName := msg.From.UserName
	if displayName == "" {
		displayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}

	blocked, err := b.access.Seen(ctx, userID, displayName)
	if err != nil {
		b.logger.Error(ctx, "access update failed", "error", err)
	}
	if blocked {
		return
	}

	reply := b.respond(ctx, userID, displayName, msg.Text)
	if reply == "" {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error(ctx, "send failed", "error", err)
	}
}

// respond maps one incoming message to a reply. An empty reply means
// the message is not addressed to the bot and is ignored.
func (b *Bot) respond(ctx context.Context, userID, displayName, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	switch strings.ToLower(strings.SplitN(text, "@", 2)[0]) {
	case "/start", "/help":
		return helpText
	case "/stock", "lager":
		return b.stockReply(ctx)
	case "/order":
		return b.orderReply(ctx, userID)
	case "/stats":
		return b.statsReply(ctx, userID, displayName)
	}

	item, quantity, ok := parseOrder(text)
	if !ok {
		return ""
	}
	return b.placeReply(ctx, userID, displayName, item, quantity)
}

func (b *Bot) placeReply(ctx context.Context, userID, displayName, item string, quantity int) string {
	order, err := b.ledger.PlaceOrUpdate(ctx, userID, displayName, item, quantity)
	switch {
	case err == nil:
		if quantity == 0 {
			return fmt.Sprintf("%s fjernet %s. Ny sum: %d", displayName, item, order.Total)
		}
		return fmt.Sprintf("%s bestilte %d x %s. Ny sum: %d", displayName, quantity, item, order.Total)
	case errors.Is(err, common.ErrUnknownItem):
		// not an order line, stay silent
		return ""
	case errors.Is(err, common.ErrInsufficientStock):
		return "Ikke nok på lager: " + strings.TrimPrefix(err.Error(), common.ErrInsufficientStock.Error()+": ")
	case errors.Is(err, common.ErrNoActiveSession), errors.Is(err, common.ErrSessionClosed):
		return "Ingen åpen bestillingsrunde akkurat nå."
	case errors.Is(err, common.ErrUserLocked):
		return "Bestillingen din er låst av admin."
	case errors.Is(err, common.ErrInvalidQuantity):
		return "Antall kan ikke være negativt."
	default:
		b.logger.Error(ctx, "order failed", "error", err, "user", userID)
		return "Noe gikk galt, prøv igjen senere."
	}
}

func (b *Bot) stockReply(ctx context.Context) string {
	remaining, err := b.ledger.CurrentRemaining(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoActiveSession) {
			return "Ingen åpen bestillingsrunde akkurat nå."
		}
		b.logger.Error(ctx, "stock lookup failed", "error", err)
		return "Noe gikk galt, prøv igjen senere."
	}

	names := make([]string, 0, len(remaining))
	for name := range remaining {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Igjen på lager:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %d\n", name, remaining[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) orderReply(ctx context.Context, userID string) string {
	view, err := b.ledger.UserOrder(ctx, userID)
	switch {
	case errors.Is(err, common.ErrNoActiveSession):
		return "Ingen åpen bestillingsrunde akkurat nå."
	case errors.Is(err, common.ErrOrderNotFound):
		return "Du har ingen bestilling i denne runden."
	case err != nil:
		b.logger.Error(ctx, "order lookup failed", "error", err, "user", userID)
		return "Noe gikk galt, prøv igjen senere."
	}

	names := make([]string, 0, len(view.Items))
	for name, qty := range view.Items {
		if qty > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "Du har ingen bestilling i denne runden."
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Din bestilling i %s:\n", view.SessionName)
	for _, name := range names {
		fmt.Fprintf(&sb, "%d x %s\n", view.Items[name], name)
	}
	fmt.Fprintf(&sb, "Sum: %d", view.Total)
	return sb.String()
}

func (b *Bot) statsReply(ctx context.Context, userID, displayName string) string {
	view, err := b.stats.View(ctx, userID)
	if err != nil {
		b.logger.Error(ctx, "stats lookup failed", "error", err, "user", userID)
		return "Noe gikk galt, prøv igjen senere."
	}
	if view.TotalItems == 0 && view.TotalSpent == 0 {
		return "Ingen statistikk for deg ennå."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Statistikk for %s:\n", displayName)
	fmt.Fprintf(&sb, "Totalt brukt: %d\n", view.TotalSpent)
	fmt.Fprintf(&sb, "Antall varer: %d", view.TotalItems)
	if view.FavoriteItem != "" {
		fmt.Fprintf(&sb, "\nFavoritt: %s (%d)", view.FavoriteItem, view.FavoriteCount)
	}
	return sb.String()
}
