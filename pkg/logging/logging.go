package logging

import (
	"encoding/json"
	"log"
	"time"
)

type Fields struct {
	Service         string `json:"service"`
	CheckoutID      string `json:"checkout_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	ProductID       string `json:"product_id,omitempty"`
	Step            string `json:"step,omitempty"`
	Status          string `json:"status,omitempty"`
	DurationMS      int64  `json:"duration_ms,omitempty"`
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Log writes fields as one JSON line through the standard logger.
func Log(fields Fields) {
	payload := struct {
		Fields
		Timestamp string `json:"timestamp"`
	}{
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("{\"service\":%q,\"status\":\"log_error\",\"error\":%q}", fields.Service, err.Error())
		return
	}
	log.Print(string(data))
}
