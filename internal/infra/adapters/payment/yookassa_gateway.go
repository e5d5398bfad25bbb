package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*YooKassaGateway)(nil)

const yookassaAPI = "https://api.yookassa.ru/v3/payments"

// YooKassaGateway implements the payment port against the YooKassa REST v3
// API with shop-id/secret-key basic auth.
type YooKassaGateway struct {
	shopID    string
	secretKey string
	returnURL string
	client    *http.Client
}

func NewYooKassaGateway(shopID, secretKey, returnURL string) (*YooKassaGateway, error) {
	if shopID == "" || secretKey == "" {
		return nil, errors.New("yookassa credentials empty")
	}
	return &YooKassaGateway{
		shopID:    shopID,
		secretKey: secretKey,
		returnURL: returnURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (y *YooKassaGateway) Name() string { return "yookassa" }

func (y *YooKassaGateway) CreateCharge(ctx context.Context, amountRUB int64, userID int64, credits int, description string) (adapter.Charge, error) {
	payload := map[string]any{
		"amount": map[string]string{
			"value":    fmt.Sprintf("%d.00", amountRUB),
			"currency": "RUB",
		},
		"capture":     true,
		"description": description,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": y.returnURL,
		},
		"metadata": map[string]string{
			"tg_id":   strconv.FormatInt(userID, 10),
			"credits": strconv.Itoa(credits),
		},
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, yookassaAPI, bytes.NewReader(b))
	if err != nil {
		return adapter.Charge{}, err
	}
	req.SetBasicAuth(y.shopID, y.secretKey)
	req.Header.Set("Content-Type", "application/json")
	// The API deduplicates retried creates by this key.
	req.Header.Set("Idempotence-Key", uuid.NewString())

	resp, err := y.client.Do(req)
	if err != nil {
		return adapter.Charge{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return adapter.Charge{}, fmt.Errorf("yookassa create returned %d", resp.StatusCode)
	}
	var out struct {
		ID           string `json:"id"`
		Confirmation struct {
			ConfirmationURL string `json:"confirmation_url"`
		} `json:"confirmation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Charge{}, err
	}
	if out.ID == "" || out.Confirmation.ConfirmationURL == "" {
		return adapter.Charge{}, errors.New("yookassa create: incomplete response")
	}
	return adapter.Charge{ProviderID: out.ID, RedirectURL: out.Confirmation.ConfirmationURL}, nil
}

func (y *YooKassaGateway) CheckStatus(ctx context.Context, providerID string) (model.PaymentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yookassaAPI+"/"+providerID, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(y.shopID, y.secretKey)

	resp, err := y.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("yookassa get returned %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	switch out.Status {
	case "succeeded":
		return model.PaymentStatusSucceeded, nil
	case "canceled":
		return model.PaymentStatusFailed, nil
	default:
		// pending, waiting_for_capture
		return model.PaymentStatusPending, nil
	}
}
