package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const welcomeText = "🔮 Добро пожаловать! Открой мини-приложение, чтобы получить гороскоп и расклад таро. Команда «⭐ Подписка» откроет безлимитный доступ."

// Store is the subset of the storage layer the bot loop writes to.
type Store interface {
	EnsureUser(ctx context.Context, userID int64, firstName string) error
	AddReferral(ctx context.Context, referrerID, referredID int64) error
}

// Invoice describes a payment link request forwarded to the Bot API.
type Invoice struct {
	Title       string
	Description string
	Payload     string
	Currency    string
	PriceLabel  string
	Amount      int
}

// Service provides methods for interacting with the Telegram Bot API.
type Service struct {
	logger *log.Logger
	bot    *tgbotapi.BotAPI
	store  Store
}

// NewService creates a new Telegram Service.
func NewService(botToken string, store Store, logger *log.Logger) (*Service, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("connecting to bot api: %w", err)
	}

	logger.Printf("Authorized on account %s", bot.Self.UserName)

	return &Service{
		logger: logger,
		bot:    bot,
		store:  store,
	}, nil
}

// SendMessage sends a Markdown-formatted message to a given chat ID.
func (s *Service) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := s.bot.Send(msg)
	return err
}

// CreateInvoiceLink requests a payment link from the Bot API. The client
// library predates this endpoint, so it goes through MakeRequest.
func (s *Service) CreateInvoiceLink(_ context.Context, inv Invoice) (string, error) {
	prices, err := json.Marshal([]tgbotapi.LabeledPrice{
		{Label: inv.PriceLabel, Amount: inv.Amount},
	})
	if err != nil {
		return "", fmt.Errorf("encoding prices: %w", err)
	}

	params := tgbotapi.Params{
		"title":       inv.Title,
		"description": inv.Description,
		"payload":     inv.Payload,
		"currency":    inv.Currency,
		"prices":      string(prices),
	}

	resp, err := s.bot.MakeRequest("createInvoiceLink", params)
	if err != nil {
		return "", fmt.Errorf("createInvoiceLink: %w", err)
	}

	var link string
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decoding invoice link: %w", err)
	}
	return link, nil
}

// StartPolling runs a long-polling loop handling bot commands until the
// context is cancelled. It should be run in its own goroutine.
func (s *Service) StartPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Command() == "start" {
				s.handleStartCommand(ctx, update.Message)
			}
		}
	}
}

// handleStartCommand registers the user and captures referral deep links of
// the form /start ref_<referrer_id>.
func (s *Service) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	from := message.From
	if from == nil {
		return
	}

	if err := s.store.EnsureUser(ctx, from.ID, from.FirstName); err != nil {
		s.logger.Printf("bot: failed to ensure user %d: %v", from.ID, err)
	}

	if referrerID, ok := parseReferralArg(message.CommandArguments()); ok && referrerID != from.ID {
		if err := s.store.AddReferral(ctx, referrerID, from.ID); err != nil {
			s.logger.Printf("bot: failed to add referral %d -> %d: %v", referrerID, from.ID, err)
		}
	}

	reply := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	if _, err := s.bot.Send(reply); err != nil {
		s.logger.Printf("bot: failed to send welcome to %d: %v", message.Chat.ID, err)
	}
}

// parseReferralArg extracts the referrer ID from a /start deep link argument
// of the form ref_<referrer_id>.
func parseReferralArg(arg string) (int64, bool) {
	ref, ok := strings.CutPrefix(strings.TrimSpace(arg), "ref_")
	if !ok {
		return 0, false
	}
	referrerID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || referrerID <= 0 {
		return 0, false
	}
	return referrerID, true
}
