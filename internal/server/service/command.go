package service

import "strings"

// Keywords recognised in text messages.
const (
	KeywordClockIn    = "出勤"
	KeywordClockOut   = "退勤"
	KeywordCorrection = "打刻修正"
)

// Command is what a text message means for the conversation. It is one of
// ClockIn, ClockOut, EnterCorrection, SubmitCorrection or Echo.
type Command interface {
	command()
}

type ClockIn struct{}

type ClockOut struct{}

type EnterCorrection struct{}

// SubmitCorrection carries the two lines the user sent while a correction
// was pending. The values are forwarded unvalidated.
type SubmitCorrection struct {
	ClockInAt  string
	ClockOutAt string
}

// Echo is any text without a meaning; it is sent back unchanged.
type Echo struct {
	Text string
}

func (ClockIn) command()          {}
func (ClockOut) command()         {}
func (EnterCorrection) command()  {}
func (SubmitCorrection) command() {}
func (Echo) command()             {}

// ParseCommand interprets text. While a correction is pending every message
// is the correction itself, whatever it says.
func ParseCommand(text string, awaitingCorrection bool) Command {
	if awaitingCorrection {
		in, out, _ := strings.Cut(text, "\n")
		return SubmitCorrection{ClockInAt: in, ClockOutAt: out}
	}
	switch strings.TrimSpace(text) {
	case KeywordClockIn:
		return ClockIn{}
	case KeywordClockOut:
		return ClockOut{}
	case KeywordCorrection:
		return EnterCorrection{}
	default:
		return Echo{Text: text}
	}
}

// needsRegistration reports whether the command acts on the user's HR record.
func needsRegistration(c Command) bool {
	_, echo := c.(Echo)
	return !echo
}
