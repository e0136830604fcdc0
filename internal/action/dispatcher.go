package action

import (
	"context"
	"encoding/json"
	"log"

	"astroapp-go/internal/metrics"
)

// Action is one of the fixed set of Mini App actions. Anything outside the
// set is acknowledged with a plain ok and no effect.
type Action string

const (
	UseReading      Action = "use_reading"
	TarotReading    Action = "tarot_reading"
	BuySubscription Action = "buy_subscription"
	BuyPremium      Action = "buy_premium"
	Horoscope       Action = "horoscope"
	Compatibility   Action = "compatibility"
	MoneyForecast   Action = "money_forecast"
	KarmaAnalysis   Action = "karma_analysis"
	ShareReferral   Action = "share_referral"
)

const defaultCompatibilityScore = 75

const subscribeHint = "💳 Для оформления подписки нажми /start и выбери «⭐ Подписка»"

// Forecast texts are static; the app does not generate content.
var cannedTexts = map[Action]string{
	Horoscope:     "Сегодня звёзды благоволят смелым решениям. Доверься интуиции — она подскажет верный путь.",
	MoneyForecast: "Финансовый поток усиливается: ближайшие дни удачны для планирования бюджета и новых источников дохода.",
	KarmaAnalysis: "Кармический баланс в норме. Добрые дела последних недель скоро вернутся сторицей.",
}

// Store is the subset of the storage layer the dispatcher writes to.
type Store interface {
	IncrementReadingsUsed(ctx context.Context, userID int64) error
}

// Notifier delivers bot messages. A nil Notifier disables messaging without
// changing caller-visible behavior.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Result is the structured acknowledgment returned to the Mini App.
type Result struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect,omitempty"`
	Text     string `json:"text,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

// compatibilityPayload is the only action payload carrying data today.
// Per-action payload types keep the free-form data map out of the core.
type compatibilityPayload struct {
	Score *int `json:"score"`
}

// Dispatcher maps (user, action, data) to its effect.
type Dispatcher struct {
	store    Store
	notifier Notifier
	logger   *log.Logger
}

// NewDispatcher creates a Dispatcher. notifier may be nil when no bot token
// is configured.
func NewDispatcher(store Store, notifier Notifier, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch performs the effect for an action and returns its acknowledgment.
// Side-effect failures are logged and swallowed; the response stays ok.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, act Action, data json.RawMessage) Result {
	metrics.ActionsDispatched.WithLabelValues(string(act)).Inc()

	switch act {
	case UseReading, TarotReading:
		if err := d.store.IncrementReadingsUsed(ctx, userID); err != nil {
			d.logger.Printf("action: failed to increment readings for %d: %v", userID, err)
			metrics.StorageFailures.WithLabelValues("increment_readings").Inc()
		}
		return Result{Status: "ok"}

	case BuySubscription, BuyPremium:
		d.notify(ctx, userID, subscribeHint)
		return Result{Status: "ok", Redirect: "bot"}

	case Horoscope, MoneyForecast, KarmaAnalysis:
		return Result{Status: "ok", Text: cannedTexts[act]}

	case Compatibility:
		score := defaultCompatibilityScore
		if len(data) > 0 {
			var payload compatibilityPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				d.logger.Printf("action: bad compatibility payload for %d: %v", userID, err)
			} else if payload.Score != nil {
				score = *payload.Score
			}
		}
		return Result{Status: "ok", Score: &score}

	case ShareReferral:
		return Result{Status: "ok"}

	default:
		return Result{Status: "ok"}
	}
}

func (d *Dispatcher) notify(ctx context.Context, chatID int64, text string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Printf("action: failed to message user %d: %v", chatID, err)
	}
}
