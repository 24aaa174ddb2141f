package flow

import (
	"strings"
	"time"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

// CelebrationDelay is how long the celebration runs between blowing out the
// candle and revealing the card.
const CelebrationDelay = 4 * time.Second

const (
	NoticeMessageRequired = "Please write a message first."
	NoticeSubmitFailed    = "We couldn't send your message. Please try again."
	NoticeSavedOffline    = "Your letter is ready to send, but we couldn't save a copy."
)

var rebuffTexts = []string{
	"No",
	"Are you sure?",
	"Really sure?",
	"Don't do this!",
	"I'm gonna cry...",
	"Just click Yes!",
}

// RebuffText returns the decline button text after n declines. The index
// saturates at the last phrase.
func RebuffText(n int) string {
	if n < 0 {
		n = 0
	}
	if n >= len(rebuffTexts) {
		n = len(rebuffTexts) - 1
	}
	return rebuffTexts[n]
}

// Session is the per-visit flow state. It is only changed by Step.
type Session struct {
	Screen           Screen
	Rebuffs          int
	SelectedGift     string // empty until a gift is picked
	CountdownElapsed bool

	CandleLit     bool
	Celebrating   bool
	BlownAt       time.Time
	SubmitPending bool
	Notice        string
}

// NewSession starts on the countdown with the candle lit. elapsed restores a
// previously persisted countdown flag.
func NewSession(elapsed bool) Session {
	return Session{
		Screen:           ScreenCountdown,
		CountdownElapsed: elapsed,
		CandleLit:        true,
	}
}

// Env is the read-only context a transition is evaluated against.
type Env struct {
	Now    time.Time
	Target time.Time
	Gifts  []models.Gift
}

// Input is an event fed to Step.
type Input interface {
	isInput()
}

type (
	Tick               struct{}
	Enter              struct{}
	Accept             struct{}
	Decline            struct{}
	Blow               struct{}
	CelebrationElapsed struct{}
	Continue           struct{}
	Pick               struct{ GiftID string }
	PickAnother        struct{}
	WriteLetter        struct{}
	Back               struct{}
	Submit             struct {
		Content string
		Sender  string
	}
	// SubmitResult completes a pending Submit. ComposerOpened reports whether
	// the email composer was handed the letter independently of the sink.
	SubmitResult struct {
		Message        *models.Message
		Err            error
		ComposerOpened bool
	}
)

func (Tick) isInput()               {}
func (Enter) isInput()              {}
func (Accept) isInput()             {}
func (Decline) isInput()            {}
func (Blow) isInput()               {}
func (CelebrationElapsed) isInput() {}
func (Continue) isInput()           {}
func (Pick) isInput()               {}
func (PickAnother) isInput()        {}
func (WriteLetter) isInput()        {}
func (Back) isInput()               {}
func (Submit) isInput()             {}
func (SubmitResult) isInput()       {}

// Effect is work the engine performs after a transition.
type Effect interface {
	isEffect()
}

type (
	StartTicker         struct{}
	StopTicker          struct{}
	PersistElapsed      struct{}
	ScheduleCelebration struct{ Delay time.Duration }
	SubmitMessage       struct {
		Content string
		Sender  string
	}
)

func (StartTicker) isEffect()         {}
func (StopTicker) isEffect()          {}
func (PersistElapsed) isEffect()      {}
func (ScheduleCelebration) isEffect() {}
func (SubmitMessage) isEffect()       {}

// ActiveGifts is the picker content: the configured gifts, or the three
// built-in placeholders when none are configured.
func ActiveGifts(gifts []models.Gift) []models.Gift {
	if len(gifts) == 0 {
		return models.FallbackGifts()
	}
	return gifts
}

func findGift(gifts []models.Gift, id string) (models.Gift, bool) {
	for _, g := range ActiveGifts(gifts) {
		if g.ID == id {
			return g, true
		}
	}
	return models.Gift{}, false
}

// Begin returns the effects needed when a session is first hosted.
func Begin(s Session) []Effect {
	if s.Screen == ScreenCountdown && !s.CountdownElapsed {
		return []Effect{StartTicker{}}
	}
	return nil
}

// Step applies one input. Inputs whose guard fails leave the session
// unchanged and produce no effects.
func Step(s Session, in Input, env Env) (Session, []Effect) {
	switch s.Screen {
	case ScreenCountdown:
		switch in.(type) {
		case Tick:
			if s.CountdownElapsed || env.Now.Before(env.Target) {
				return s, nil
			}
			s.CountdownElapsed = true
			return s, []Effect{StopTicker{}, PersistElapsed{}}
		case Enter:
			if !s.CountdownElapsed {
				return s, nil
			}
			s.Screen = ScreenConsent
			return s, []Effect{StopTicker{}}
		}

	case ScreenConsent:
		switch in.(type) {
		case Accept:
			s.Screen = ScreenCandleBlow
			return s, nil
		case Decline:
			s.Rebuffs++
			return s, nil
		}

	case ScreenCandleBlow:
		switch in.(type) {
		case Blow:
			if !s.CandleLit {
				return s, nil
			}
			s.CandleLit = false
			s.Celebrating = true
			s.BlownAt = env.Now
			return s, []Effect{ScheduleCelebration{Delay: CelebrationDelay}}
		case CelebrationElapsed:
			if !s.Celebrating {
				return s, nil
			}
			s.Celebrating = false
			s.Screen = ScreenCard
			return s, nil
		}

	case ScreenCard:
		if _, ok := in.(Continue); ok {
			s.Screen = ScreenGiftPick
		}
		return s, nil

	case ScreenGiftPick:
		if pick, ok := in.(Pick); ok {
			if _, found := findGift(env.Gifts, pick.GiftID); found {
				s.SelectedGift = pick.GiftID
				s.Screen = ScreenReward
			}
		}
		return s, nil

	case ScreenReward:
		switch in.(type) {
		case PickAnother:
			s.SelectedGift = ""
			s.Screen = ScreenGiftPick
		case WriteLetter:
			s.Notice = ""
			s.Screen = ScreenLetter
		}
		return s, nil

	case ScreenLetter:
		return stepLetter(s, in)
	}

	return s, nil
}

func stepLetter(s Session, in Input) (Session, []Effect) {
	switch in := in.(type) {
	case Submit:
		if s.SubmitPending {
			return s, nil
		}
		content := strings.TrimSpace(in.Content)
		if content == "" {
			s.Notice = NoticeMessageRequired
			return s, nil
		}
		s.SubmitPending = true
		s.Notice = ""
		return s, []Effect{SubmitMessage{Content: content, Sender: strings.TrimSpace(in.Sender)}}

	case SubmitResult:
		if !s.SubmitPending {
			return s, nil
		}
		s.SubmitPending = false
		switch {
		case in.Err == nil:
			s.Notice = ""
			s.Screen = ScreenDone
		case in.ComposerOpened:
			s.Notice = NoticeSavedOffline
			s.Screen = ScreenDone
		default:
			s.Notice = NoticeSubmitFailed
		}
		return s, nil

	case Back:
		if s.SubmitPending {
			return s, nil
		}
		s.Notice = ""
		s.Screen = ScreenReward
		return s, nil
	}
	return s, nil
}
