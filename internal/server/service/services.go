package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Miura55/freee-labor-bot/internal/server/config"
	"github.com/Miura55/freee-labor-bot/internal/server/freee"
	"github.com/Miura55/freee-labor-bot/internal/server/line"
	cryptohelper "github.com/Miura55/freee-labor-bot/internal/shared/crypto"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

// Repository is the durable store of user state and bearer tokens.
type Repository interface {
	CreateUser(ctx context.Context, u models.UserRecord) error
	GetUser(ctx context.Context, userID string) (models.UserRecord, error)
	SetAwaitingCorrection(ctx context.Context, userID string, awaiting bool) error
	DeleteUser(ctx context.Context, userID string) error

	PutToken(ctx context.Context, t models.BearerToken) error
	GetToken(ctx context.Context, tenantID string) (models.BearerToken, error)
}

// Messenger is the messaging platform.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
	MessageContent(ctx context.Context, messageID string) ([]byte, error)
	LinkRichMenu(ctx context.Context, userID, richMenuID string) error
	UnlinkRichMenu(ctx context.Context, userID string) error
}

// ReceiptReader is the OCR gateway.
type ReceiptReader interface {
	Read(ctx context.Context, image []byte) (models.ReceiptResult, error)
}

// Attendance is the HR API.
type Attendance interface {
	TimeClock(ctx context.Context, token string, companyID int64, employeeID, clockType string) (json.RawMessage, error)
	CorrectWorkRecord(ctx context.Context, token, employeeID, date string, rec freee.WorkRecord) (json.RawMessage, error)
}

// ExpenseSubmitter is the accounting API.
type ExpenseSubmitter interface {
	SubmitExpense(ctx context.Context, token string, app models.ExpenseApplication) (json.RawMessage, error)
}

// ImageArchiver keeps receipt images. Optional.
type ImageArchiver interface {
	Store(ctx context.Context, userID string, image []byte) (string, error)
}

// RichMenus are the rich menu ids linked per attendance state. Empty ids
// are skipped.
type RichMenus struct {
	Attendance string
	OnDuty     string
	OffDuty    string
}

// Deps are the collaborators wired into the services.
type Deps struct {
	Repo      Repository
	Messenger Messenger
	OCR       ReceiptReader
	HR        Attendance
	Expenses  ExpenseSubmitter
	Archive   ImageArchiver
	Logger    *slog.Logger
}

type Services struct {
	Tokens       *TokenProvider
	Registration *RegistrationService
	Receipts     *ReceiptPipeline
	Conversation *ConversationService
}

func NewServices(deps Deps, cfg config.Config) (*Services, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	menus := RichMenus{Attendance: cfg.RichMenuAttendance, OnDuty: cfg.RichMenuOnDuty, OffDuty: cfg.RichMenuOffDuty}

	tokens := &TokenProvider{repo: deps.Repo}
	if len(cfg.TokenKey) > 0 {
		sealer, err := cryptohelper.NewSealer(cfg.TokenKey)
		if err != nil {
			return nil, err
		}
		tokens.sealer = sealer
	}

	registration := &RegistrationService{
		repo:      deps.Repo,
		messenger: deps.Messenger,
		secret:    []byte(cfg.RegistrationSecret),
		formURL:   cfg.RegistrationURL,
		menu:      menus.Attendance,
		logger:    logger.With("component", "registration"),
		now:       time.Now,
	}

	receipts := &ReceiptPipeline{
		ocr:       deps.OCR,
		expenses:  deps.Expenses,
		archive:   deps.Archive,
		tokens:    tokens,
		companyID: cfg.CompanyID,
		tenantID:  cfg.TenantID(),
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "receipt"),
	}

	conversation := &ConversationService{
		repo:         deps.Repo,
		messenger:    deps.Messenger,
		hr:           deps.HR,
		tokens:       tokens,
		receipts:     receipts,
		registration: registration,
		companyID:    cfg.CompanyID,
		tenantID:     cfg.TenantID(),
		menus:        menus,
		loc:          loc,
		now:          time.Now,
		logger:       logger.With("component", "conversation"),
		locks:        newKeyLock(),
	}

	return &Services{
		Tokens:       tokens,
		Registration: registration,
		Receipts:     receipts,
		Conversation: conversation,
	}, nil
}
