package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Miura55/freee-labor-bot/internal/server/config"
	"github.com/Miura55/freee-labor-bot/internal/server/freee"
	"github.com/Miura55/freee-labor-bot/internal/server/line"
	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

const (
	testUser   = "U0123456789abcdef0123456789abcdef"
	testTenant = "42"
)

// 2024-03-31T16:00Z is already April 1st in Tokyo.
var (
	testNow = time.Date(2024, 3, 31, 16, 0, 0, 0, time.UTC)
	jst     = time.FixedZone("JST", 9*60*60)
)

type memRepo struct {
	mu       sync.Mutex
	users    map[string]models.UserRecord
	tokens   map[string]models.BearerToken
	getDelay time.Duration
	getErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]models.UserRecord{}, tokens: map[string]models.BearerToken{}}
}

func (r *memRepo) CreateUser(_ context.Context, u models.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; ok {
		return repository.ErrAlreadyExists
	}
	r.users[u.UserID] = u
	return nil
}

func (r *memRepo) GetUser(_ context.Context, userID string) (models.UserRecord, error) {
	r.mu.Lock()
	u, ok := r.users[userID]
	err := r.getErr
	r.mu.Unlock()
	if r.getDelay > 0 {
		time.Sleep(r.getDelay)
	}
	if err != nil {
		return models.UserRecord{}, err
	}
	if !ok {
		return models.UserRecord{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *memRepo) SetAwaitingCorrection(_ context.Context, userID string, awaiting bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.AwaitingCorrection = awaiting
	r.users[userID] = u
	return nil
}

func (r *memRepo) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *memRepo) PutToken(_ context.Context, t models.BearerToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.TenantID] = t
	return nil
}

func (r *memRepo) GetToken(_ context.Context, tenantID string) (models.BearerToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tenantID]
	if !ok {
		return models.BearerToken{}, repository.ErrNotFound
	}
	return t, nil
}

func (r *memRepo) user(id string) (models.UserRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return u, ok
}

type sentReply struct {
	token    string
	messages []line.Message
}

type fakeMessenger struct {
	mu         sync.Mutex
	replies    []sentReply
	links      map[string]string
	unlinked   []string
	content    []byte
	contentErr error
	replyErr   error
}

func (m *fakeMessenger) Reply(_ context.Context, token string, msgs ...line.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, sentReply{token: token, messages: msgs})
	return m.replyErr
}

func (m *fakeMessenger) MessageContent(context.Context, string) ([]byte, error) {
	return m.content, m.contentErr
}

func (m *fakeMessenger) LinkRichMenu(_ context.Context, userID, menu string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[userID] = menu
	return nil
}

func (m *fakeMessenger) UnlinkRichMenu(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlinked = append(m.unlinked, userID)
	return nil
}

func (m *fakeMessenger) sent() []sentReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentReply(nil), m.replies...)
}

func (m *fakeMessenger) linked(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[userID]
}

type clockCall struct {
	token, employeeID, clockType string
	companyID                    int64
}

type correctionCall struct {
	token, employeeID, date string
	rec                     freee.WorkRecord
}

type fakeHR struct {
	mu          sync.Mutex
	clocks      []clockCall
	corrections []correctionCall
	err         error
}

func (h *fakeHR) TimeClock(_ context.Context, token string, companyID int64, employeeID, clockType string) (json.RawMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clocks = append(h.clocks, clockCall{token: token, employeeID: employeeID, clockType: clockType, companyID: companyID})
	return json.RawMessage(`{"ok":true}`), h.err
}

func (h *fakeHR) CorrectWorkRecord(_ context.Context, token, employeeID, date string, rec freee.WorkRecord) (json.RawMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.corrections = append(h.corrections, correctionCall{token: token, employeeID: employeeID, date: date, rec: rec})
	return json.RawMessage(`{"ok":true}`), h.err
}

func (h *fakeHR) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clocks), len(h.corrections)
}

type fakeOCR struct {
	result models.ReceiptResult
	err    error
}

func (o *fakeOCR) Read(context.Context, []byte) (models.ReceiptResult, error) {
	return o.result, o.err
}

type fakeExpenses struct {
	mu    sync.Mutex
	calls []models.ExpenseApplication
	token string
	err   error
}

func (e *fakeExpenses) SubmitExpense(_ context.Context, token string, app models.ExpenseApplication) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, app)
	e.token = token
	if e.err != nil {
		return nil, e.err
	}
	return json.RawMessage(`{"expense_application":{"id":1}}`), nil
}

func (e *fakeExpenses) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fakeArchive struct {
	mu     sync.Mutex
	stored [][]byte
	err    error
}

func (a *fakeArchive) Store(_ context.Context, _ string, image []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored = append(a.stored, image)
	return "receipts/key.jpg", a.err
}

var errBoom = errors.New("boom")

type fixture struct {
	repo      *memRepo
	messenger *fakeMessenger
	hr        *fakeHR
	ocr       *fakeOCR
	expenses  *fakeExpenses
	archive   *fakeArchive
	svcs      *Services
}

func testConfig() config.Config {
	return config.Config{
		CompanyID:          42,
		RegistrationSecret: "test-secret",
		RegistrationURL:    "https://example.com/register",
		RichMenuAttendance: "rm-attendance",
		RichMenuOnDuty:     "rm-on",
		RichMenuOffDuty:    "rm-off",
		Location:           jst,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMemRepo(),
		messenger: &fakeMessenger{},
		hr:        &fakeHR{},
		ocr:       &fakeOCR{},
		expenses:  &fakeExpenses{},
		archive:   &fakeArchive{},
	}
	svcs, err := NewServices(Deps{
		Repo:      f.repo,
		Messenger: f.messenger,
		OCR:       f.ocr,
		HR:        f.hr,
		Expenses:  f.expenses,
		Archive:   f.archive,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	clock := func() time.Time { return testNow }
	svcs.Conversation.now = clock
	svcs.Receipts.now = clock
	svcs.Registration.now = clock
	f.svcs = svcs
	return f
}

func (f *fixture) register(t *testing.T, userID, employeeID string) {
	t.Helper()
	if err := f.repo.CreateUser(context.Background(), models.UserRecord{UserID: userID, EmployeeID: employeeID}); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) putToken(t *testing.T, access string) {
	t.Helper()
	err := f.svcs.Tokens.Put(context.Background(), models.BearerToken{TenantID: testTenant, AccessToken: access})
	if err != nil {
		t.Fatal(err)
	}
}

func textEvent(userID, replyToken, text string) line.Event {
	return line.Event{
		Type:       line.EventMessage,
		ReplyToken: replyToken,
		Source:     line.Source{Type: "user", UserID: userID},
		Message:    &line.InboundMessage{ID: "m1", Type: line.MessageText, Text: text},
	}
}

func replyTexts(t *testing.T, r sentReply) []string {
	t.Helper()
	var out []string
	for _, m := range r.messages {
		tm, ok := m.(line.TextMessage)
		if !ok {
			t.Fatalf("expected text message, got %T", m)
		}
		out = append(out, tm.Text)
	}
	return out
}
