// Package ocr reads receipts through the receipt OCR API.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

// APIKeyHeader carries the OCR API key.
const APIKeyHeader = "x-linebrain-apigw-api-key"

// ErrUnreadable is returned when the OCR API answers with a non-200 status.
var ErrUnreadable = errors.New("receipt could not be read")

type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

func NewClient(httpClient *http.Client, url, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, url: url, apiKey: apiKey}
}

type recognizeRequest struct {
	ImageContent string `json:"imageContent"`
}

type price struct {
	Price models.Yen `json:"price"`
}

type recognizeResponse struct {
	Result struct {
		StoreInfo struct {
			Name string `json:"name"`
		} `json:"storeInfo"`
		Items []struct {
			Name      string `json:"name"`
			PriceInfo price  `json:"priceInfo"`
		} `json:"items"`
		TotalPrice  price `json:"totalPrice"`
		PaymentInfo struct {
			Date string `json:"date"`
		} `json:"paymentInfo"`
	} `json:"result"`
}

// Read sends the image to the OCR API and returns the structured receipt.
func (c *Client) Read(ctx context.Context, image []byte) (models.ReceiptResult, error) {
	body, err := json.Marshal(recognizeRequest{ImageContent: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return models.ReceiptResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.ReceiptResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ReceiptResult{}, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.ReceiptResult{}, fmt.Errorf("%w: status %s", ErrUnreadable, resp.Status)
	}
	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ReceiptResult{}, fmt.Errorf("ocr decode: %w", err)
	}
	res := models.ReceiptResult{
		StoreName:   out.Result.StoreInfo.Name,
		TotalPrice:  out.Result.TotalPrice.Price,
		PaymentDate: out.Result.PaymentInfo.Date,
		Items:       make([]models.ReceiptItem, 0, len(out.Result.Items)),
	}
	for _, it := range out.Result.Items {
		res.Items = append(res.Items, models.ReceiptItem{Name: it.Name, UnitPrice: it.PriceInfo.Price})
	}
	return res, nil
}
