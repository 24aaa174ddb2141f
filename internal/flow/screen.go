// Package flow implements the birthday surprise screen flow: a pure
// transition function over session state plus an event-loop engine that owns
// the countdown ticker, the celebration timer and message submission.
package flow

import "strings"

// Screen is one of the closed set of flow screens.
type Screen string

const (
	ScreenCountdown  Screen = "countdown"
	ScreenConsent    Screen = "consent"
	ScreenCandleBlow Screen = "candle_blow"
	ScreenCard       Screen = "card"
	ScreenGiftPick   Screen = "gift_pick"
	ScreenReward     Screen = "reward"
	ScreenLetter     Screen = "letter"
	ScreenDone       Screen = "done"
	ScreenNotFound   Screen = "not_found" // unknown route, terminal
)

var knownScreens = map[Screen]struct{}{
	ScreenCountdown:  {},
	ScreenConsent:    {},
	ScreenCandleBlow: {},
	ScreenCard:       {},
	ScreenGiftPick:   {},
	ScreenReward:     {},
	ScreenLetter:     {},
	ScreenDone:       {},
}

// ParseScreen maps a route name to a Screen. Anything unrecognised is
// ScreenNotFound.
func ParseScreen(name string) Screen {
	s := Screen(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := knownScreens[s]; ok {
		return s
	}
	return ScreenNotFound
}

// Terminal reports whether no input can move the flow off this screen.
func (s Screen) Terminal() bool {
	return s == ScreenDone || s == ScreenNotFound
}

func (s Screen) String() string {
	return string(s)
}
