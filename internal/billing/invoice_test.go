package billing

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroapp-go/internal/telegram"
)

type fakeBot struct {
	invoices []telegram.Invoice
	link     string
	linkErr  error

	messages []string
	sendErr  error
}

func (f *fakeBot) CreateInvoiceLink(ctx context.Context, inv telegram.Invoice) (string, error) {
	f.invoices = append(f.invoices, inv)
	return f.link, f.linkErr
}

func (f *fakeBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return f.sendErr
}

type fakeLedger struct {
	records []string
	userIDs []int64
	err     error
}

func (f *fakeLedger) RecordInvoice(ctx context.Context, id string, userID int64, product string, amount int) error {
	f.records = append(f.records, id)
	f.userIDs = append(f.userIDs, userID)
	return f.err
}

func newTestInvoicer(bot BotClient, ledger Ledger) *Invoicer {
	return NewInvoicer(bot, ledger, 250, log.New(io.Discard, "", 0))
}

func TestCreateInvoice_Stars(t *testing.T) {
	bot := &fakeBot{link: "https://t.me/$abc"}
	ledger := &fakeLedger{}
	inv := newTestInvoicer(bot, ledger)

	res := inv.CreateInvoice(context.Background(), 42, "subscription", MethodStars)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "https://t.me/$abc", res.InvoiceLink)
	assert.Empty(t, res.Redirect)

	require.Len(t, bot.invoices, 1)
	sent := bot.invoices[0]
	assert.Equal(t, "subscription_42", sent.Payload)
	assert.Equal(t, "XTR", sent.Currency)
	assert.Equal(t, 250, sent.Amount)

	require.Len(t, ledger.records, 1)
	assert.NotEmpty(t, ledger.records[0])
	assert.Equal(t, []int64{42}, ledger.userIDs)
}

func TestCreateInvoice_BotFailure(t *testing.T) {
	bot := &fakeBot{linkErr: errors.New("bad request")}
	ledger := &fakeLedger{}
	inv := newTestInvoicer(bot, ledger)

	res := inv.CreateInvoice(context.Background(), 42, "subscription", MethodStars)
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "Failed to create invoice", res.Message)
	assert.Empty(t, res.InvoiceLink)
	assert.Empty(t, ledger.records, "failed invoices are not recorded")
}

func TestCreateInvoice_LedgerFailureKeepsLink(t *testing.T) {
	bot := &fakeBot{link: "https://t.me/$abc"}
	ledger := &fakeLedger{err: errors.New("database is locked")}
	inv := newTestInvoicer(bot, ledger)

	res := inv.CreateInvoice(context.Background(), 42, "subscription", MethodStars)
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "https://t.me/$abc", res.InvoiceLink)
}

func TestCreateInvoice_OtherMethodRedirects(t *testing.T) {
	bot := &fakeBot{}
	ledger := &fakeLedger{}
	inv := newTestInvoicer(bot, ledger)

	res := inv.CreateInvoice(context.Background(), 42, "subscription", "yookassa")
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "bot", res.Redirect)
	assert.Empty(t, res.InvoiceLink)
	assert.Empty(t, bot.invoices)
	require.Len(t, bot.messages, 1)
	assert.Contains(t, bot.messages[0], "оплате")
}

func TestCreateInvoice_OtherMethodSendFailureStaysOK(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("blocked by user")}
	inv := newTestInvoicer(bot, &fakeLedger{})

	res := inv.CreateInvoice(context.Background(), 42, "subscription", "card")
	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "bot", res.Redirect)
}

func TestCreateInvoice_NilBot(t *testing.T) {
	inv := newTestInvoicer(nil, &fakeLedger{})

	res := inv.CreateInvoice(context.Background(), 42, "subscription", MethodStars)
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "payment service unavailable", res.Message)
}
