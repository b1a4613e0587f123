package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// OrderEvent is the payload handed to notifiers after a commit. One event is
// dispatched per created or updated order, once to the vendor and once to the
// customer side.
type OrderEvent struct {
	Type        string    `json:"type"` // "order_placed" | "order_status"
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	VendorID    string    `json:"vendor_id"`
	Status      string    `json:"status"`
	Total       string    `json:"total"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier delivers order events. Implementations are fire-and-forget:
// a delivery failure is logged and must never fail the triggering request.
type Notifier interface {
	NotifyOrderEvent(event OrderEvent) error
}

// Dispatch sends events to a notifier in the background, after the caller's
// transaction has committed and any locks are released.
func Dispatch(n Notifier, events []OrderEvent) {
	if n == nil {
		return
	}
	go func() {
		for _, event := range events {
			if err := n.NotifyOrderEvent(event); err != nil {
				log.Printf("[Notify] %s for order %s failed: %v", event.Type, event.OrderNumber, err)
			}
		}
	}()
}

// MultiNotifier fans one event out to several backends.
type MultiNotifier []Notifier

func (m MultiNotifier) NotifyOrderEvent(event OrderEvent) error {
	for _, n := range m {
		if err := n.NotifyOrderEvent(event); err != nil {
			log.Printf("[Notify] backend failed: %v", err)
		}
	}
	return nil
}

// TelegramNotifier posts order events to a Telegram admin chat.
type TelegramNotifier struct {
	botToken    string
	adminChatID string
}

// NewTelegramNotifier creates a TelegramNotifier.
func NewTelegramNotifier(botToken, adminChatID string) *TelegramNotifier {
	return &TelegramNotifier{botToken: botToken, adminChatID: adminChatID}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (t *TelegramNotifier) SendMessage(chatID, text string) error {
	if t.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyOrderEvent implements Notifier.
func (t *TelegramNotifier) NotifyOrderEvent(event OrderEvent) error {
	if t.adminChatID == "" {
		return nil
	}

	title := "🛒 NEW ORDER"
	if event.Type == "order_status" {
		title = "📦 ORDER UPDATE"
	}

	message := fmt.Sprintf(`<b>%s</b>
<b>📋 Order:</b> %s
<b>🏪 Vendor:</b> %s
<b>🍽 Items:</b> %d
<b>💰 Total:</b> RM%s
<b>📍 Status:</b> %s
━━━━━━━━━━━━━━━━━━`,
		title,
		event.OrderNumber,
		event.VendorID,
		event.ItemCount,
		event.Total,
		event.Status,
	)

	return t.SendMessage(t.adminChatID, strings.TrimSpace(message))
}

// KafkaNotifier publishes order events to a Kafka topic so downstream
// consumers (vendor apps, push gateways) deliver them off the request path.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotifier connects a synchronous Sarama producer.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start Sarama producer: %w", err)
	}

	log.Println("[Notify] Kafka producer connected")
	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

// NotifyOrderEvent implements Notifier.
func (k *KafkaNotifier) NotifyOrderEvent(event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(payload),
	}

	_, _, err = k.producer.SendMessage(msg)
	return err
}

// Close shuts the underlying producer down.
func (k *KafkaNotifier) Close() error {
	return k.producer.Close()
}
