package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserRecord links a LINE user to an HR employee. It exists only for users
// who completed registration.
type UserRecord struct {
	UserID             string    `json:"user_id"`
	EmployeeID         string    `json:"employee_id"`
	AwaitingCorrection bool      `json:"awaiting_correction"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BearerToken is the freee OAuth token pair for one tenant (company).
type BearerToken struct {
	TenantID     string    `json:"tenant_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Yen is an integer amount of Japanese yen. OCR responses carry prices either
// as JSON numbers or as numeric strings.
type Yen int64

func (y *Yen) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*y = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*y = Yen(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid yen amount %s", string(b))
	}
	*y = Yen(int64(f))
	return nil
}

// String formats the amount as "¥<n>" without grouping.
func (y Yen) String() string {
	return "¥" + strconv.FormatInt(int64(y), 10)
}

// ReceiptItem is one purchased line on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	UnitPrice Yen    `json:"unit_price"`
}

// ReceiptResult is what the OCR service read from one receipt image.
type ReceiptResult struct {
	StoreName   string        `json:"store_name"`
	Items       []ReceiptItem `json:"items"`
	TotalPrice  Yen           `json:"total_price"`
	PaymentDate string        `json:"payment_date"`
}

// ExpenseApplicationLine is a single line of a freee expense application.
type ExpenseApplicationLine struct {
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	Amount          int64  `json:"amount"`
}

// ExpenseApplication is the request body of the freee expense_applications API.
type ExpenseApplication struct {
	CompanyID     int64                    `json:"company_id"`
	Title         string                   `json:"title"`
	IssueDate     string                   `json:"issue_date"`
	Description   string                   `json:"description"`
	EditableOnWeb bool                     `json:"editable_on_web"`
	Lines         []ExpenseApplicationLine `json:"expense_application_lines"`
}

// RegisterRequest is the body of the registration form submission.
type RegisterRequest struct {
	RegistrationToken string `json:"registration_token"`
	EmployeeID        string `json:"employee_id"`
}
