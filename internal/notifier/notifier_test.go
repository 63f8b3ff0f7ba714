package notifier

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/logging"
	"github.com/gastrogenius/restaurant-pos/internal/pos"
	"github.com/gastrogenius/restaurant-pos/models"
)

func TestSMSNotifierPostsForm(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"SMSMessageData":{"Message":"Sent to 1/1","Recipients":[{"statusCode":101,"number":"+919800000000","status":"Success"}]}}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	cfg := config.SMSConfig{URL: srv.URL, Username: "sandbox", APIKey: "key", SenderID: "GASTRO"}
	n := NewSMS(cfg, srv.Client(), logging.New("info", &logs))

	bill := billing.Default().Compute(decimal.NewFromInt(580))
	err := n.SendBill(context.Background(), "+919800000000", models.Order{ID: 7}, bill)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "key", got.Header.Get("apiKey"))
	assert.Equal(t, "sandbox", got.PostForm.Get("username"))
	assert.Equal(t, "+919800000000", got.PostForm.Get("to"))
	assert.Equal(t, "GASTRO", got.PostForm.Get("from"))
	assert.Contains(t, got.PostForm.Get("message"), "#7")
	assert.Contains(t, got.PostForm.Get("message"), "Rs 609")
	assert.Contains(t, logs.String(), "Sent to 1/1")
}

func TestNotifiersServeTheEngine(t *testing.T) {
	var _ pos.Notifier = (*SMSNotifier)(nil)
	var _ pos.Notifier = (*LogNotifier)(nil)

	assert.IsType(t, &SMSNotifier{}, New(config.SMSConfig{URL: "http://gateway.test"}, logging.New("info", &bytes.Buffer{})))
}

func TestSMSNotifierGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewSMS(config.SMSConfig{URL: srv.URL}, srv.Client(), logging.New("info", &bytes.Buffer{}))
	err := n.SendBill(context.Background(), "123", models.Order{ID: 1}, billing.Bill{})
	assert.Error(t, err)
}

func TestNewWithoutGatewayLogs(t *testing.T) {
	var buf bytes.Buffer
	n := New(config.SMSConfig{}, logging.New("info", &buf))
	require.IsType(t, &LogNotifier{}, n)

	bill := billing.Default().Compute(decimal.NewFromInt(100))
	require.NoError(t, n.SendBill(context.Background(), "98200", models.Order{ID: 3}, bill))
	assert.Contains(t, buf.String(), "98200")
	assert.Contains(t, buf.String(), "105.00")
}
