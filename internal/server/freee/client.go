// Package freee calls the freee HR (time clocks, work records) and
// accounting (expense applications) APIs.
package freee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

const (
	DefaultHRBaseURL         = "https://api.freee.co.jp/hr/api/v1"
	DefaultAccountingBaseURL = "https://api.freee.co.jp/api/1"
)

// Time clock types accepted by the HR API.
const (
	ClockIn  = "clock_in"
	ClockOut = "clock_out"
)

type Client struct {
	httpClient     *http.Client
	hrBase         string
	accountingBase string
}

func NewClient(httpClient *http.Client, hrBase, accountingBase string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if hrBase == "" {
		hrBase = DefaultHRBaseURL
	}
	if accountingBase == "" {
		accountingBase = DefaultAccountingBaseURL
	}
	return &Client{
		httpClient:     httpClient,
		hrBase:         strings.TrimSuffix(hrBase, "/"),
		accountingBase: strings.TrimSuffix(accountingBase, "/"),
	}
}

type timeClockRequest struct {
	CompanyID int64  `json:"company_id"`
	Type      string `json:"type"`
}

// TimeClock registers a clock_in or clock_out for the employee.
func (c *Client) TimeClock(ctx context.Context, token string, companyID int64, employeeID, clockType string) (json.RawMessage, error) {
	endpoint := c.hrBase + "/employees/" + url.PathEscape(employeeID) + "/time_clocks"
	return c.do(ctx, http.MethodPost, endpoint, token, timeClockRequest{CompanyID: companyID, Type: clockType})
}

// WorkRecord is the body of a work record update.
type WorkRecord struct {
	CompanyID  int64  `json:"company_id"`
	ClockInAt  string `json:"clock_in_at"`
	ClockOutAt string `json:"clock_out_at"`
}

// CorrectWorkRecord overwrites the clock-in/out times of the employee's
// work record for date (YYYY-MM-DD). Times are forwarded as given.
func (c *Client) CorrectWorkRecord(ctx context.Context, token, employeeID, date string, rec WorkRecord) (json.RawMessage, error) {
	endpoint := c.hrBase + "/work_records/" + url.PathEscape(employeeID) + "/" + url.PathEscape(date)
	body := struct {
		WorkRecord WorkRecord `json:"work_record"`
	}{rec}
	return c.do(ctx, http.MethodPut, endpoint, token, body)
}

// SubmitExpense files an expense application. It is never retried.
func (c *Client) SubmitExpense(ctx context.Context, token string, app models.ExpenseApplication) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.accountingBase+"/expense_applications", token, app)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("freee: %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body any) (json.RawMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("freee: %s %s returned a non-JSON body", method, endpoint)
	}
	return json.RawMessage(data), nil
}
