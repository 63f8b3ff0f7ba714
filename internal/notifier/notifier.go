package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/internal/config"
	"github.com/gastrogenius/restaurant-pos/internal/pos"
	"github.com/gastrogenius/restaurant-pos/models"
)

// New picks the SMS gateway when one is configured and the log otherwise.
func New(cfg config.SMSConfig, logger log.FieldLogger) pos.Notifier {
	if cfg.URL == "" {
		return &LogNotifier{log: logger}
	}
	return NewSMS(cfg, &http.Client{Timeout: 10 * time.Second}, logger)
}

func billMessage(order models.Order, bill billing.Bill) string {
	return fmt.Sprintf("Your bill #%d is Rs %s (incl. SGST and CGST). Thank you, visit again!",
		order.ID, bill.PayableTotal().String())
}

// LogNotifier only writes the bill to the log.
type LogNotifier struct {
	log log.FieldLogger
}

func (n *LogNotifier) SendBill(_ context.Context, phone string, order models.Order, bill billing.Bill) error {
	n.log.WithFields(log.Fields{
		"phone":    phone,
		"order_id": order.ID,
		"amount":   bill.GrandTotal.StringFixed(2),
		"message":  billMessage(order, bill),
	}).Info("bill sms (not sent, no gateway configured)")
	return nil
}

type smsResponse struct {
	SMSMessageData struct {
		Message string `json:"Message"`
	} `json:"SMSMessageData"`
}

// SMSNotifier posts the message to an Africa's Talking compatible gateway.
type SMSNotifier struct {
	cfg    config.SMSConfig
	client *http.Client
	log    log.FieldLogger
}

func NewSMS(cfg config.SMSConfig, client *http.Client, logger log.FieldLogger) *SMSNotifier {
	return &SMSNotifier{cfg: cfg, client: client, log: logger}
}

func (n *SMSNotifier) SendBill(ctx context.Context, phone string, order models.Order, bill billing.Bill) error {
	data := url.Values{}
	data.Set("username", n.cfg.Username)
	data.Set("to", phone)
	data.Set("message", billMessage(order, bill))
	if n.cfg.SenderID != "" {
		data.Set("from", n.cfg.SenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, strings.NewReader(data.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create SMS request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apiKey", n.cfg.APIKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "SMS send failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return errors.Errorf("SMS API returned non-success status: %d", resp.StatusCode)
	}

	var smsResp smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&smsResp); err != nil {
		return errors.Wrap(err, "failed to decode SMS response")
	}

	n.log.WithFields(log.Fields{
		"phone":    phone,
		"order_id": order.ID,
		"gateway":  smsResp.SMSMessageData.Message,
	}).Info("bill sms sent")
	return nil
}
