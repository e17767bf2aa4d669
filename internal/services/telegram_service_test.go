package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1,234,567.50 USD", FormatPrice(1234567.5, ""))
	assert.Equal(t, "999 UZS", FormatPrice(999, "UZS"))
	assert.Equal(t, "1,000 EUR", FormatPrice(1000, "EUR"))
}

func TestTelegramSendsToAdminChat(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42", zap.NewNop())
	tg.apiBase = srv.URL
	tg.NotifyPendingProduct(context.Background(), ProductNotification{
		ProductID:  "p1",
		Title:      "<Bike>",
		Price:      120,
		SellerName: "Ann",
		SellerType: "individual",
	})

	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.Contains(t, got.Text, "&lt;Bike&gt;")
	assert.Contains(t, got.Text, "120 USD")
}

func TestTelegramErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42", zap.NewNop())
	tg.apiBase = srv.URL
	assert.Error(t, tg.SendMessage(context.Background(), "42", "hi"))
}

func TestTelegramWithoutTokenIsNoop(t *testing.T) {
	tg := NewTelegramService("", "42", zap.NewNop())
	assert.NoError(t, tg.SendMessage(context.Background(), "42", "hi"))
}
