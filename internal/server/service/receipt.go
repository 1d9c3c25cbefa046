package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Miura55/freee-labor-bot/internal/server/flex"
	"github.com/Miura55/freee-labor-bot/internal/server/freee"
	"github.com/Miura55/freee-labor-bot/internal/server/line"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

// ReceiptPipeline turns a receipt photo into a reply. Expense filing and
// archiving run beside rendering and never change the reply.
type ReceiptPipeline struct {
	ocr       ReceiptReader
	expenses  ExpenseSubmitter
	archive   ImageArchiver
	tokens    *TokenProvider
	companyID int64
	tenantID  string
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// HandleReceiptImage reads image and returns the message to send back.
func (p *ReceiptPipeline) HandleReceiptImage(ctx context.Context, userID string, image []byte) line.Message {
	receipt, err := p.ocr.Read(ctx, image)
	if err != nil {
		p.logger.Warn("receipt ocr failed", "user_id", userID, "err", err)
		return line.TextMessage{Text: MsgReceiptUnreadable}
	}
	p.logger.Info("receipt read", "user_id", userID, "store", receipt.StoreName,
		"items", len(receipt.Items), "total", int64(receipt.TotalPrice))

	var side errgroup.Group
	side.Go(func() error {
		p.submitExpense(ctx, userID, receipt)
		return nil
	})
	if p.archive != nil {
		side.Go(func() error {
			p.archiveImage(ctx, userID, image)
			return nil
		})
	}

	msg, renderErr := flex.BuildReceipt(receipt)
	_ = side.Wait()
	if renderErr != nil {
		p.logger.Error("render receipt", "user_id", userID, "err", renderErr)
		return line.TextMessage{Text: MsgReceiptUnreadable}
	}
	return msg
}

func (p *ReceiptPipeline) submitExpense(ctx context.Context, userID string, receipt models.ReceiptResult) {
	token, err := p.tokens.CurrentAccessToken(ctx, p.tenantID)
	if err != nil {
		p.logger.Warn("skip expense application", "user_id", userID, "err", err)
		return
	}
	today := p.now().In(p.loc).Format(time.DateOnly)
	app := freee.NewExpenseApplication(p.companyID, receipt, today)
	out, err := p.expenses.SubmitExpense(ctx, token, app)
	if err != nil {
		p.logger.Warn("submit expense application", "user_id", userID, "err", err)
		return
	}
	p.logger.Info("expense application submitted", "user_id", userID, "result", string(out))
}

func (p *ReceiptPipeline) archiveImage(ctx context.Context, userID string, image []byte) {
	key, err := p.archive.Store(ctx, userID, image)
	if err != nil {
		p.logger.Warn("archive receipt image", "user_id", userID, "err", err)
		return
	}
	p.logger.Info("receipt image archived", "user_id", userID, "key", key)
}
