package billing

import (
	"context"
	"fmt"
	"log"

	"astroapp-go/internal/metrics"
	"astroapp-go/internal/telegram"

	"github.com/google/uuid"
)

// MethodStars selects payment with Telegram Stars. Any other method is
// completed in the bot conversation instead.
const MethodStars = "stars"

const (
	invoiceTitle       = "⭐ Премиум подписка"
	invoiceDescription = "Безлимитный доступ на 30 дней"
	invoicePriceLabel  = "Подписка"
	invoiceCurrency    = "XTR"

	payHint = "💳 Переходи к оплате в боте: /start → Подписка"
)

// BotClient is the Bot API surface the invoicer depends on.
type BotClient interface {
	CreateInvoiceLink(ctx context.Context, inv telegram.Invoice) (string, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Ledger records issued invoices for later reconciliation.
type Ledger interface {
	RecordInvoice(ctx context.Context, id string, userID int64, product string, amount int) error
}

// Result is the structured outcome of an invoice request. Upstream failures
// surface as Status "error", never as a transport fault.
type Result struct {
	Status      string `json:"status"`
	InvoiceLink string `json:"invoice_link,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Invoicer creates payment invoices through the Bot API.
type Invoicer struct {
	bot        BotClient // nil when no bot token is configured
	ledger     Ledger
	starsPrice int
	logger     *log.Logger
}

// NewInvoicer creates an Invoicer. bot may be nil, in which case every
// request reports the payment service as unavailable.
func NewInvoicer(bot BotClient, ledger Ledger, starsPrice int, logger *log.Logger) *Invoicer {
	return &Invoicer{
		bot:        bot,
		ledger:     ledger,
		starsPrice: starsPrice,
		logger:     logger,
	}
}

// CreateInvoice handles a payment request for a product via the given method.
func (i *Invoicer) CreateInvoice(ctx context.Context, userID int64, product, method string) Result {
	if i.bot == nil {
		metrics.InvoicesCreated.WithLabelValues(method, "unavailable").Inc()
		return Result{Status: "error", Message: "payment service unavailable"}
	}

	if method != MethodStars {
		// Other processors are completed in the bot conversation.
		if err := i.bot.SendMessage(ctx, userID, payHint); err != nil {
			i.logger.Printf("billing: failed to message user %d: %v", userID, err)
		}
		metrics.InvoicesCreated.WithLabelValues(method, "redirect").Inc()
		return Result{Status: "ok", Redirect: "bot"}
	}

	link, err := i.bot.CreateInvoiceLink(ctx, telegram.Invoice{
		Title:       invoiceTitle,
		Description: invoiceDescription,
		Payload:     fmt.Sprintf("subscription_%d", userID),
		Currency:    invoiceCurrency,
		PriceLabel:  invoicePriceLabel,
		Amount:      i.starsPrice,
	})
	if err != nil {
		i.logger.Printf("billing: failed to create invoice for %d: %v", userID, err)
		metrics.InvoicesCreated.WithLabelValues(method, "error").Inc()
		return Result{Status: "error", Message: "Failed to create invoice"}
	}

	if err := i.ledger.RecordInvoice(ctx, uuid.NewString(), userID, product, i.starsPrice); err != nil {
		// The link is already issued; a ledger miss is diagnostic only.
		i.logger.Printf("billing: failed to record invoice for %d: %v", userID, err)
		metrics.StorageFailures.WithLabelValues("record_invoice").Inc()
	}

	metrics.InvoicesCreated.WithLabelValues(method, "ok").Inc()
	return Result{Status: "ok", InvoiceLink: link}
}
