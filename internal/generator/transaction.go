package generator

import (
	"fmt"
	"strconv"
	"time"
)

// Transaction is one synthetic card transaction.
type Transaction struct {
	TransactionID    string
	Timestamp        time.Time
	UserID           string
	Amount           float64
	MerchantCategory string
	Country          string
	Channel          string
	DeviceAgeDays    int
	Hour             int
	IsFraud          bool
}

var csvHeader = []string{
	"transaction_id",
	"timestamp",
	"user_id",
	"amount",
	"merchant_category",
	"country",
	"channel",
	"device_age_days",
	"hour",
	"is_fraud",
}

func (t Transaction) record() []string {
	fraud := "0"
	if t.IsFraud {
		fraud = "1"
	}
	return []string{
		t.TransactionID,
		t.Timestamp.Format(time.RFC3339),
		t.UserID,
		strconv.FormatFloat(t.Amount, 'f', 2, 64),
		t.MerchantCategory,
		t.Country,
		t.Channel,
		strconv.Itoa(t.DeviceAgeDays),
		strconv.Itoa(t.Hour),
		fraud,
	}
}

func parseRecord(rec []string) (Transaction, error) {
	if len(rec) != len(csvHeader) {
		return Transaction{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[1])
	if err != nil {
		return Transaction{}, fmt.Errorf("timestamp: %w", err)
	}
	amount, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("amount: %w", err)
	}
	deviceAge, err := strconv.Atoi(rec[7])
	if err != nil {
		return Transaction{}, fmt.Errorf("device_age_days: %w", err)
	}
	hour, err := strconv.Atoi(rec[8])
	if err != nil {
		return Transaction{}, fmt.Errorf("hour: %w", err)
	}
	return Transaction{
		TransactionID:    rec[0],
		Timestamp:        ts,
		UserID:           rec[2],
		Amount:           amount,
		MerchantCategory: rec[4],
		Country:          rec[5],
		Channel:          rec[6],
		DeviceAgeDays:    deviceAge,
		Hour:             hour,
		IsFraud:          rec[9] == "1",
	}, nil
}

// Summary describes a generated batch.
type Summary struct {
	Count       int
	Fraud       int
	TotalAmount float64
}

func (s Summary) FraudRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Fraud) / float64(s.Count)
}

func Summarize(records []Transaction) Summary {
	var s Summary
	for _, r := range records {
		s.Count++
		s.TotalAmount += r.Amount
		if r.IsFraud {
			s.Fraud++
		}
	}
	return s
}
