package freee

import "github.com/Miura55/freee-labor-bot/internal/shared/models"

// DefaultExpenseTitle is used when the OCR result has no store name.
const DefaultExpenseTitle = "レシート経費"

// NewExpenseApplication converts a receipt into an expense application with
// one line per item. today is the issue date (YYYY-MM-DD) and also the
// transaction date when the receipt carried no payment date.
func NewExpenseApplication(companyID int64, r models.ReceiptResult, today string) models.ExpenseApplication {
	title := r.StoreName
	if title == "" {
		title = DefaultExpenseTitle
	}
	txDate := r.PaymentDate
	if txDate == "" {
		txDate = today
	}
	lines := make([]models.ExpenseApplicationLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, models.ExpenseApplicationLine{
			TransactionDate: txDate,
			Description:     it.Name,
			Amount:          int64(it.UnitPrice),
		})
	}
	return models.ExpenseApplication{
		CompanyID:     companyID,
		Title:         title,
		IssueDate:     today,
		Description:   r.StoreName,
		EditableOnWeb: false,
		Lines:         lines,
	}
}
