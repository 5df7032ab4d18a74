package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fraud-console/internal/errors"
	"fraud-console/internal/models"
)

// flexNumber accepts a JSON number or a numeric string; form inputs bound
// as signals may arrive as either. An empty string decodes to zero.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("number %q is not finite", s)
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

type txSignal struct {
	TransactionID string     `json:"transaction_id"`
	Amount        flexNumber `json:"amount"`
	Currency      string     `json:"currency"`
	PaymentMethod string     `json:"payment_method"`
	CountryCode   string     `json:"country_code"`
	UserID        string     `json:"user_id"`
	MerchantID    string     `json:"merchant_id"`
}

func (s txSignal) transaction() models.Transaction {
	return models.Transaction{
		TransactionID: strings.TrimSpace(s.TransactionID),
		Amount:        float64(s.Amount),
		Currency:      s.Currency,
		PaymentMethod: s.PaymentMethod,
		CountryCode:   s.CountryCode,
		UserID:        strings.TrimSpace(s.UserID),
	}
}

type scoreSignals struct {
	Tx txSignal `json:"tx"`
}

type paymentSignals struct {
	Pay txSignal `json:"pay"`
}

type abTestSignals struct {
	AB struct {
		TestName              string     `json:"testName"`
		ControlModelVersion   string     `json:"controlModelVersion"`
		TreatmentModelVersion string     `json:"treatmentModelVersion"`
		HoldoutPercentage     flexNumber `json:"holdoutPercentage"`
	} `json:"ab"`
}

// request rejects a fractional holdout instead of truncating it into range.
func (s abTestSignals) request() (models.CreateABTestRequest, error) {
	holdout := float64(s.AB.HoldoutPercentage)
	if math.Trunc(holdout) != holdout {
		return models.CreateABTestRequest{}, errors.Validation(fmt.Sprintf(
			"Holdout percentage must be a whole number between %d and %d",
			models.MinHoldoutPercentage, models.MaxHoldoutPercentage))
	}
	return models.CreateABTestRequest{
		TestName:              s.AB.TestName,
		ControlModelVersion:   strings.TrimSpace(s.AB.ControlModelVersion),
		TreatmentModelVersion: strings.TrimSpace(s.AB.TreatmentModelVersion),
		HoldoutPercentage:     int(holdout),
	}, nil
}

type webhookSignals struct {
	Webhook struct {
		ProviderID string `json:"providerId"`
	} `json:"webhook"`
}
