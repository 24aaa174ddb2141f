package flow

import (
	"time"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

// Remaining is the countdown display broken into units.
type Remaining struct {
	Total   time.Duration
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// RemainingUntil returns max(0, target-now), truncated to whole seconds.
func RemainingUntil(target, now time.Time) Remaining {
	d := target.Sub(now)
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	secs := int(d / time.Second)
	return Remaining{
		Total:   d,
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

// CelebrationActive is true while the post-blow celebration is running.
func CelebrationActive(s Session, now time.Time) bool {
	return s.Screen == ScreenCandleBlow && s.Celebrating && now.Sub(s.BlownAt) < CelebrationDelay
}

// View is everything a presentation layer needs to draw the current screen.
type View struct {
	Screen           Screen
	RecipientName    string
	BirthdayMessage  string
	SenderEmail      string
	Remaining        Remaining
	CountdownElapsed bool
	DeclineText      string
	CandleLit        bool
	Celebrating      bool
	Gifts            []models.Gift
	SelectedGift     *models.Gift
	SubmitPending    bool
	Notice           string
}

// BuildView reads display values from cfg for the session's current screen.
func BuildView(s Session, cfg models.SurpriseConfig, now time.Time) View {
	v := View{
		Screen:           s.Screen,
		RecipientName:    cfg.RecipientName,
		BirthdayMessage:  cfg.BirthdayMessage,
		SenderEmail:      cfg.SenderEmail,
		Remaining:        RemainingUntil(cfg.Target(), now),
		CountdownElapsed: s.CountdownElapsed,
		DeclineText:      RebuffText(s.Rebuffs),
		CandleLit:        s.CandleLit,
		Celebrating:      CelebrationActive(s, now),
		Gifts:            ActiveGifts(cfg.Gifts),
		SubmitPending:    s.SubmitPending,
		Notice:           s.Notice,
	}
	if s.SelectedGift != "" {
		if g, ok := findGift(cfg.Gifts, s.SelectedGift); ok {
			v.SelectedGift = &g
		}
	}
	return v
}
