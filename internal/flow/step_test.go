package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testEnv(now, target time.Time, gifts []models.Gift) Env {
	return Env{Now: now, Target: target, Gifts: gifts}
}

func TestRebuffText_Saturates(t *testing.T) {
	require.Equal(t, "No", RebuffText(0))
	require.Equal(t, "Are you sure?", RebuffText(1))
	require.Equal(t, "Just click Yes!", RebuffText(len(rebuffTexts)-1))

	last := rebuffTexts[len(rebuffTexts)-1]
	for n := len(rebuffTexts); n < len(rebuffTexts)+20; n++ {
		require.Equal(t, last, RebuffText(n), "n=%d", n)
	}
	require.Equal(t, "No", RebuffText(-3))
}

func TestRebuffText_DrawnInOrder(t *testing.T) {
	for n := range rebuffTexts {
		require.Equal(t, rebuffTexts[n], RebuffText(n))
	}
}

func TestBegin(t *testing.T) {
	require.Equal(t, []Effect{StartTicker{}}, Begin(NewSession(false)))
	require.Empty(t, Begin(NewSession(true)))

	s := NewSession(false)
	s.Screen = ScreenLetter
	require.Empty(t, Begin(s))
}

func TestStep_CountdownTickIsMonotonic(t *testing.T) {
	target := testNow.Add(5 * time.Second)
	s := NewSession(false)

	prev := RemainingUntil(target, testNow).Total
	for i := 1; i <= 4; i++ {
		now := testNow.Add(time.Duration(i) * time.Second)
		var effects []Effect
		s, effects = Step(s, Tick{}, testEnv(now, target, nil))
		require.False(t, s.CountdownElapsed)
		require.Empty(t, effects)

		remaining := RemainingUntil(target, now).Total
		require.Less(t, remaining, prev)
		prev = remaining
	}

	s, effects := Step(s, Tick{}, testEnv(target, target, nil))
	require.True(t, s.CountdownElapsed)
	require.Equal(t, []Effect{StopTicker{}, PersistElapsed{}}, effects)
	require.Zero(t, RemainingUntil(target, target).Total)

	// Later ticks, even with a clock that jumped backwards, never reset it.
	for _, now := range []time.Time{target.Add(time.Second), testNow} {
		s, effects = Step(s, Tick{}, testEnv(now, target, nil))
		require.True(t, s.CountdownElapsed)
		require.Empty(t, effects)
	}
	require.Equal(t, ScreenCountdown, s.Screen)
}

func TestStep_EnterRequiresElapsed(t *testing.T) {
	s := NewSession(false)
	next, effects := Step(s, Enter{}, testEnv(testNow, testNow.Add(time.Hour), nil))
	require.Equal(t, s, next)
	require.Empty(t, effects)

	next, effects = Step(NewSession(true), Enter{}, testEnv(testNow, testNow.Add(time.Hour), nil))
	require.Equal(t, ScreenConsent, next.Screen)
	require.Equal(t, []Effect{StopTicker{}}, effects)
}

func TestStep_ConsentDeclineThenAccept(t *testing.T) {
	s := NewSession(true)
	s.Screen = ScreenConsent
	env := testEnv(testNow, testNow, nil)

	for i := 1; i <= 8; i++ {
		s, _ = Step(s, Decline{}, env)
		require.Equal(t, ScreenConsent, s.Screen)
		require.Equal(t, i, s.Rebuffs)
	}

	s, _ = Step(s, Accept{}, env)
	require.Equal(t, ScreenCandleBlow, s.Screen)
	require.Equal(t, 8, s.Rebuffs)
}

func TestStep_BlowOnlyOnce(t *testing.T) {
	s := NewSession(true)
	s.Screen = ScreenCandleBlow
	env := testEnv(testNow, testNow, nil)

	s, effects := Step(s, Blow{}, env)
	require.False(t, s.CandleLit)
	require.True(t, s.Celebrating)
	require.Equal(t, testNow, s.BlownAt)
	require.Equal(t, []Effect{ScheduleCelebration{Delay: CelebrationDelay}}, effects)

	again, effects := Step(s, Blow{}, testEnv(testNow.Add(time.Second), testNow, nil))
	require.Equal(t, s, again)
	require.Empty(t, effects)

	s, _ = Step(s, CelebrationElapsed{}, env)
	require.Equal(t, ScreenCard, s.Screen)
	require.False(t, s.Celebrating)
}

func TestStep_CelebrationElapsedWithoutBlowIsIgnored(t *testing.T) {
	s := NewSession(true)
	s.Screen = ScreenCandleBlow
	next, effects := Step(s, CelebrationElapsed{}, testEnv(testNow, testNow, nil))
	require.Equal(t, s, next)
	require.Empty(t, effects)
}

func TestStep_GiftPick(t *testing.T) {
	gifts := []models.Gift{
		{ID: "spa", Label: "Box A", Content: "Spa day"},
		{ID: "tea", Label: "Box B", Content: "Tea"},
	}
	env := testEnv(testNow, testNow, gifts)
	s := NewSession(true)
	s.Screen = ScreenGiftPick

	for _, g := range gifts {
		next, effects := Step(s, Pick{GiftID: g.ID}, env)
		require.Equal(t, ScreenReward, next.Screen)
		require.Equal(t, g.ID, next.SelectedGift)
		require.Empty(t, effects)
	}

	for _, id := range []string{"", "1", "SPA", "missing"} {
		next, effects := Step(s, Pick{GiftID: id}, env)
		require.Equal(t, s, next, "id=%q", id)
		require.Empty(t, effects)
	}
}

func TestStep_FallbackGifts(t *testing.T) {
	gifts := ActiveGifts(nil)
	require.Len(t, gifts, 3)
	ids := []string{gifts[0].ID, gifts[1].ID, gifts[2].ID}
	require.Equal(t, []string{"1", "2", "3"}, ids)

	s := NewSession(true)
	s.Screen = ScreenGiftPick
	next, _ := Step(s, Pick{GiftID: "3"}, testEnv(testNow, testNow, []models.Gift{}))
	require.Equal(t, ScreenReward, next.Screen)
	require.Equal(t, "3", next.SelectedGift)
}

func TestStep_RewardNavigation(t *testing.T) {
	s := NewSession(true)
	s.Screen = ScreenReward
	s.SelectedGift = "2"
	env := testEnv(testNow, testNow, nil)

	back, _ := Step(s, PickAnother{}, env)
	require.Equal(t, ScreenGiftPick, back.Screen)
	require.Empty(t, back.SelectedGift)

	letter, _ := Step(s, WriteLetter{}, env)
	require.Equal(t, ScreenLetter, letter.Screen)
	require.Equal(t, "2", letter.SelectedGift)

	ret, _ := Step(letter, Back{}, env)
	require.Equal(t, ScreenReward, ret.Screen)
}

func letterSession() Session {
	s := NewSession(true)
	s.Screen = ScreenLetter
	s.SelectedGift = "1"
	return s
}

func TestStep_LetterRejectsEmptyContent(t *testing.T) {
	env := testEnv(testNow, testNow, nil)
	for _, content := range []string{"", "   ", "\n\t "} {
		next, effects := Step(letterSession(), Submit{Content: content}, env)
		require.Equal(t, ScreenLetter, next.Screen)
		require.False(t, next.SubmitPending)
		require.Equal(t, NoticeMessageRequired, next.Notice)
		require.Empty(t, effects, "content=%q", content)
	}
}

func TestStep_LetterAtMostOneInFlight(t *testing.T) {
	env := testEnv(testNow, testNow, nil)
	s, effects := Step(letterSession(), Submit{Content: "  thanks!  ", Sender: " Alex "}, env)
	require.True(t, s.SubmitPending)
	require.Equal(t, []Effect{SubmitMessage{Content: "thanks!", Sender: "Alex"}}, effects)

	again, effects := Step(s, Submit{Content: "thanks again"}, env)
	require.Equal(t, s, again)
	require.Empty(t, effects)

	stay, _ := Step(s, Back{}, env)
	require.Equal(t, ScreenLetter, stay.Screen)
}

func TestStep_LetterSubmitResults(t *testing.T) {
	env := testEnv(testNow, testNow, nil)
	pending, _ := Step(letterSession(), Submit{Content: "hi"}, env)

	tests := []struct {
		name       string
		result     SubmitResult
		wantScreen Screen
		wantNotice string
	}{
		{"stored", SubmitResult{Message: &models.Message{ID: uuid.New()}}, ScreenDone, ""},
		{"stored and composed", SubmitResult{Message: &models.Message{ID: uuid.New()}, ComposerOpened: true}, ScreenDone, ""},
		{"sink failed but composer opened", SubmitResult{Err: errors.New("boom"), ComposerOpened: true}, ScreenDone, NoticeSavedOffline},
		{"sink failed", SubmitResult{Err: errors.New("boom")}, ScreenLetter, NoticeSubmitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, effects := Step(pending, tt.result, env)
			require.Empty(t, effects)
			require.False(t, next.SubmitPending)
			require.Equal(t, tt.wantScreen, next.Screen)
			require.Equal(t, tt.wantNotice, next.Notice)
		})
	}
}

func TestStep_StaleSubmitResultIgnored(t *testing.T) {
	s := letterSession()
	next, _ := Step(s, SubmitResult{}, testEnv(testNow, testNow, nil))
	require.Equal(t, s, next)
}

func TestStep_TerminalScreensIgnoreInput(t *testing.T) {
	inputs := []Input{Tick{}, Enter{}, Accept{}, Decline{}, Blow{}, Continue{}, Pick{GiftID: "1"}, PickAnother{}, WriteLetter{}, Back{}, Submit{Content: "x"}}
	for _, screen := range []Screen{ScreenDone, ScreenNotFound} {
		s := NewSession(true)
		s.Screen = screen
		require.True(t, screen.Terminal())
		for _, in := range inputs {
			next, effects := Step(s, in, testEnv(testNow, testNow, nil))
			require.Equal(t, s, next)
			require.Empty(t, effects)
		}
	}
}

func TestStep_EndToEnd(t *testing.T) {
	cfg := models.SurpriseConfig{
		RecipientName:   "Sam",
		TargetDate:      testNow.Add(-time.Second).Format(time.RFC3339),
		BirthdayMessage: "Happy birthday!",
		SenderEmail:     "friend@example.com",
	}
	env := testEnv(testNow, cfg.Target(), cfg.Gifts)
	s := NewSession(false)
	sinkCalls := 0

	step := func(in Input) {
		var effects []Effect
		s, effects = Step(s, in, env)
		for _, eff := range effects {
			if _, ok := eff.(SubmitMessage); ok {
				sinkCalls++
			}
		}
	}

	step(Tick{})
	require.True(t, s.CountdownElapsed)
	step(Enter{})
	require.Equal(t, ScreenConsent, s.Screen)
	step(Decline{})
	require.Equal(t, 1, s.Rebuffs)
	require.Equal(t, rebuffTexts[1], BuildView(s, cfg, testNow).DeclineText)
	step(Accept{})
	require.Equal(t, ScreenCandleBlow, s.Screen)
	step(Blow{})
	require.True(t, BuildView(s, cfg, testNow).Celebrating)
	require.False(t, BuildView(s, cfg, testNow.Add(CelebrationDelay)).Celebrating)
	step(CelebrationElapsed{})
	require.Equal(t, ScreenCard, s.Screen)
	step(Continue{})
	require.Equal(t, ScreenGiftPick, s.Screen)
	step(Pick{GiftID: "2"})
	require.Equal(t, ScreenReward, s.Screen)
	require.Equal(t, "2", s.SelectedGift)
	step(WriteLetter{})
	require.Equal(t, ScreenLetter, s.Screen)
	step(Submit{Content: "thanks!"})
	step(Submit{Content: "thanks!"})
	require.Equal(t, 1, sinkCalls)
	step(SubmitResult{Message: &models.Message{ID: uuid.New(), Content: "thanks!"}})
	require.Equal(t, ScreenDone, s.Screen)
}
