package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier alerts the moderation team about marketplace activity.
type Notifier interface {
	NotifyPendingProduct(ctx context.Context, n ProductNotification)
	NotifyFlaggedProduct(ctx context.Context, n ProductNotification, reason string)
	NotifyNewStore(ctx context.Context, n StoreNotification)
}

// TelegramService sends notifications to the admin Telegram chat. It is a
// no-op when the bot token or chat is not configured.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 5 * time.Second},
		log:         log,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat and logs delivery failures.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) {
	if s.adminChatID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.SendMessage(ctx, s.adminChatID, text); err != nil {
		s.log.Warn("failed to send telegram notification", zap.Error(err))
	}
}

// ProductNotification describes a listing for the moderation chat.
type ProductNotification struct {
	ProductID  string
	Title      string
	Price      float64
	Currency   string
	SellerName string
	SellerType string
}

type StoreNotification struct {
	StoreID   string
	Name      string
	OwnerName string
	Category  string
}

// FormatPrice formats price with currency and thousand separators.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	cents := int64(amount*100 + 0.5)
	str := fmt.Sprintf("%d", cents/100)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	if rem := cents % 100; rem != 0 {
		result.WriteString(fmt.Sprintf(".%02d", rem))
	}

	return result.String() + " " + currency
}

func (s *TelegramService) NotifyPendingProduct(ctx context.Context, n ProductNotification) {
	message := fmt.Sprintf(`<b>🆕 New listing awaiting review</b>
<b>Title:</b> %s
<b>Price:</b> %s
<b>Seller:</b> %s (%s)
<b>ID:</b> <code>%s</code>`,
		html.EscapeString(n.Title),
		FormatPrice(n.Price, n.Currency),
		html.EscapeString(n.SellerName),
		n.SellerType,
		n.ProductID,
	)
	s.SendToAdmin(ctx, message)
}

func (s *TelegramService) NotifyFlaggedProduct(ctx context.Context, n ProductNotification, reason string) {
	message := fmt.Sprintf(`<b>🚩 Listing reported</b>
<b>Title:</b> %s
<b>Reason:</b> %s
<b>ID:</b> <code>%s</code>`,
		html.EscapeString(n.Title),
		html.EscapeString(reason),
		n.ProductID,
	)
	s.SendToAdmin(ctx, message)
}

func (s *TelegramService) NotifyNewStore(ctx context.Context, n StoreNotification) {
	message := fmt.Sprintf(`<b>🏪 New store registered</b>
<b>Name:</b> %s
<b>Owner:</b> %s
<b>Category:</b> %s
<b>ID:</b> <code>%s</code>`,
		html.EscapeString(n.Name),
		html.EscapeString(n.OwnerName),
		html.EscapeString(n.Category),
		n.StoreID,
	)
	s.SendToAdmin(ctx, message)
}
