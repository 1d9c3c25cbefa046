package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Miura55/freee-labor-bot/internal/server/freee"
	"github.com/Miura55/freee-labor-bot/internal/server/line"
	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

// ConversationService reacts to webhook events. Text messages drive the
// per-user Idle / AwaitingCorrection machine kept in UserRecord.
type ConversationService struct {
	repo         Repository
	messenger    Messenger
	hr           Attendance
	tokens       *TokenProvider
	receipts     *ReceiptPipeline
	registration *RegistrationService
	companyID    int64
	tenantID     string
	menus        RichMenus
	loc          *time.Location
	now          func() time.Time
	logger       *slog.Logger
	locks        *keyLock
}

// HandleEvent processes one event. Events with a reply token get exactly one
// reply; the returned error is for logging only.
func (s *ConversationService) HandleEvent(ctx context.Context, ev line.Event) error {
	switch ev.Type {
	case line.EventFollow:
		return s.handleFollow(ctx, ev)
	case line.EventUnfollow:
		return s.handleUnfollow(ctx, ev)
	case line.EventMessage:
		if ev.Message == nil {
			return nil
		}
		switch ev.Message.Type {
		case line.MessageText:
			return s.handleText(ctx, ev)
		case line.MessageImage:
			return s.handleImage(ctx, ev)
		}
	}
	s.logger.Debug("event ignored", "type", ev.Type, "user_id", ev.Source.UserID)
	return nil
}

func (s *ConversationService) handleText(ctx context.Context, ev line.Event) error {
	msgs, err := s.transition(ctx, ev.Source.UserID, ev.Message.Text)
	if err != nil {
		s.logger.Error("handle text message", "user_id", ev.Source.UserID, "err", err)
		msgs = []line.Message{line.TextMessage{Text: MsgInternalError}}
	}
	return errors.Join(err, s.reply(ctx, ev.ReplyToken, msgs...))
}

// transition runs one step of the machine for userID while holding the
// user's lock, so no two deliveries act on the same state read.
func (s *ConversationService) transition(ctx context.Context, userID, text string) ([]line.Message, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.repo.GetUser(ctx, userID)
	registered := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	cmd := ParseCommand(text, rec.AwaitingCorrection)
	if !registered && needsRegistration(cmd) {
		return s.registrationPrompt(userID)
	}

	switch c := cmd.(type) {
	case ClockIn:
		s.clock(ctx, rec, freee.ClockIn, s.menus.OnDuty)
		return text1(MsgClockedIn), nil
	case ClockOut:
		s.clock(ctx, rec, freee.ClockOut, s.menus.OffDuty)
		return text1(MsgClockedOut), nil
	case EnterCorrection:
		if err := s.repo.SetAwaitingCorrection(ctx, userID, true); err != nil {
			return nil, fmt.Errorf("enter correction for %s: %w", userID, err)
		}
		return text1(MsgCorrectionPrompt), nil
	case SubmitCorrection:
		s.correct(ctx, rec, c)
		if err := s.repo.SetAwaitingCorrection(ctx, userID, false); err != nil {
			return nil, fmt.Errorf("leave correction for %s: %w", userID, err)
		}
		return text1(MsgCorrected), nil
	case Echo:
		return text1(c.Text), nil
	}
	return nil, fmt.Errorf("unhandled command %T", cmd)
}

func (s *ConversationService) clock(ctx context.Context, rec models.UserRecord, clockType, menu string) {
	token, err := s.tokens.CurrentAccessToken(ctx, s.tenantID)
	if err != nil {
		s.logger.Warn("skip time clock", "user_id", rec.UserID, "type", clockType, "err", err)
	} else {
		out, err := s.hr.TimeClock(ctx, token, s.companyID, rec.EmployeeID, clockType)
		if err != nil {
			s.logger.Warn("time clock failed", "user_id", rec.UserID, "type", clockType, "err", err)
		} else {
			s.logger.Info("time clock recorded", "user_id", rec.UserID, "type", clockType, "result", string(out))
		}
	}
	s.linkMenu(ctx, rec.UserID, menu)
}

func (s *ConversationService) correct(ctx context.Context, rec models.UserRecord, c SubmitCorrection) {
	token, err := s.tokens.CurrentAccessToken(ctx, s.tenantID)
	if err != nil {
		s.logger.Warn("skip work record correction", "user_id", rec.UserID, "err", err)
		return
	}
	date := s.now().In(s.loc).Format(time.DateOnly)
	out, err := s.hr.CorrectWorkRecord(ctx, token, rec.EmployeeID, date, freee.WorkRecord{
		CompanyID:  s.companyID,
		ClockInAt:  c.ClockInAt,
		ClockOutAt: c.ClockOutAt,
	})
	if err != nil {
		s.logger.Warn("work record correction failed", "user_id", rec.UserID, "date", date, "err", err)
		return
	}
	s.logger.Info("work record corrected", "user_id", rec.UserID, "date", date, "result", string(out))
}

func (s *ConversationService) linkMenu(ctx context.Context, userID, menu string) {
	if menu == "" {
		return
	}
	if err := s.messenger.LinkRichMenu(ctx, userID, menu); err != nil {
		s.logger.Warn("link rich menu", "user_id", userID, "menu", menu, "err", err)
	}
}

func (s *ConversationService) handleImage(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	var msg line.Message
	image, err := s.messenger.MessageContent(ctx, ev.Message.ID)
	if err != nil {
		s.logger.Warn("fetch image content", "user_id", userID, "message_id", ev.Message.ID, "err", err)
		msg = line.TextMessage{Text: MsgReceiptUnreadable}
	} else {
		msg = s.receipts.HandleReceiptImage(ctx, userID, image)
	}
	return s.reply(ctx, ev.ReplyToken, msg)
}

func (s *ConversationService) handleFollow(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	if err := s.messenger.UnlinkRichMenu(ctx, userID); err != nil {
		s.logger.Debug("unlink rich menu", "user_id", userID, "err", err)
	}
	msgs := []line.Message{
		line.TextMessage{Text: MsgWelcome},
		line.StickerMessage{PackageID: welcomeStickerPackage, StickerID: welcomeStickerID},
	}
	prompt, err := s.registrationPrompt(userID)
	if err != nil {
		s.logger.Error("build registration prompt", "user_id", userID, "err", err)
	}
	msgs = append(msgs, prompt...)
	return errors.Join(err, s.reply(ctx, ev.ReplyToken, msgs...))
}

func (s *ConversationService) handleUnfollow(ctx context.Context, ev line.Event) error {
	userID := ev.Source.UserID
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.repo.DeleteUser(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.logger.Info("user removed", "user_id", userID)
	return nil
}

func (s *ConversationService) registrationPrompt(userID string) ([]line.Message, error) {
	link, err := s.registration.Link(userID)
	if err != nil {
		return nil, err
	}
	return text1(fmt.Sprintf(MsgRegistrationPrompt, link)), nil
}

func (s *ConversationService) reply(ctx context.Context, replyToken string, msgs ...line.Message) error {
	if replyToken == "" || len(msgs) == 0 {
		return nil
	}
	if err := s.messenger.Reply(ctx, replyToken, msgs...); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func text1(s string) []line.Message {
	return []line.Message{line.TextMessage{Text: s}}
}
