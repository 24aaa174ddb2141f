// Package tui is a terminal front end for the surprise flow. It forwards key
// presses to a flow.Engine as inputs and redraws from the engine's snapshots.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/HammerMeetNail/birthdaysurprise/internal/flow"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

// letterFocus tracks which letter field receives keys.
type letterFocus int

const (
	focusContent letterFocus = iota
	focusSender
)

type snapshotMsg flow.Snapshot

type engineStoppedMsg struct{}

type giftItem struct {
	gift models.Gift
}

func (i giftItem) Title() string {
	if i.gift.Label != "" {
		return "🎁 " + i.gift.Label
	}
	return "🎁 Gift " + i.gift.ID
}
func (i giftItem) Description() string { return "Open me!" }
func (i giftItem) FilterValue() string { return i.gift.ID }

// App is the bubbletea model.
type App struct {
	ctx      context.Context
	engine   *flow.Engine
	updates  <-chan flow.Snapshot
	composer *Composer

	snap    flow.Snapshot
	giftIDs []string
	mailto  string

	giftMenu    list.Model
	letter      textarea.Model
	sender      textinput.Model
	letterFocus letterFocus

	width  int
	height int
}

// NewApp subscribes to engine. The engine's Run loop must be started by the
// caller with the same ctx. composer may be nil.
func NewApp(ctx context.Context, engine *flow.Engine, composer *Composer) *App {
	giftMenu := list.New(nil, list.NewDefaultDelegate(), 40, 12)
	giftMenu.Title = "Pick a gift"
	giftMenu.SetShowStatusBar(false)
	giftMenu.SetFilteringEnabled(false)
	giftMenu.SetShowHelp(false)

	letter := textarea.New()
	letter.Placeholder = "Write something nice..."
	letter.CharLimit = models.MaxMessageLength
	letter.SetWidth(50)
	letter.SetHeight(6)

	sender := textinput.New()
	sender.Placeholder = "Your name (optional)"
	sender.CharLimit = models.MaxSenderLength

	a := &App{
		ctx:      ctx,
		engine:   engine,
		updates:  engine.Subscribe(),
		composer: composer,
		snap:     engine.Snapshot(),
		giftMenu: giftMenu,
		letter:   letter,
		sender:   sender,
	}
	a.syncGifts()
	return a
}

func waitForSnapshot(ch <-chan flow.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return engineStoppedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (a *App) Init() tea.Cmd {
	return waitForSnapshot(a.updates)
}

func (a *App) send(in flow.Input) {
	a.engine.Send(a.ctx, in)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.giftMenu.SetSize(max(20, msg.Width-8), max(6, msg.Height-10))
		a.letter.SetWidth(max(20, min(70, msg.Width-8)))
		return a, nil

	case snapshotMsg:
		return a, a.applySnapshot(flow.Snapshot(msg))

	case engineStoppedMsg:
		return a, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.handleKey(msg)
	}

	if a.snap.Session.Screen == flow.ScreenLetter {
		return a, a.updateLetterFields(msg)
	}
	return a, nil
}

func (a *App) applySnapshot(snap flow.Snapshot) tea.Cmd {
	prev := a.snap.Session.Screen
	a.snap = snap
	a.syncGifts()

	var cmds []tea.Cmd
	screen := snap.Session.Screen
	if screen == flow.ScreenLetter && prev != flow.ScreenLetter {
		a.letterFocus = focusContent
		a.sender.Blur()
		cmds = append(cmds, a.letter.Focus())
	}
	if screen != flow.ScreenLetter && prev == flow.ScreenLetter {
		a.letter.Blur()
		a.sender.Blur()
	}
	if screen == flow.ScreenDone && a.composer != nil {
		select {
		case link := <-a.composer.Links():
			a.mailto = link
		default:
		}
	}
	cmds = append(cmds, waitForSnapshot(a.updates))
	return tea.Batch(cmds...)
}

// syncGifts rebuilds the picker when the gift list changes.
func (a *App) syncGifts() {
	gifts := a.snap.View.Gifts
	ids := make([]string, len(gifts))
	for i, g := range gifts {
		ids[i] = g.ID
	}
	if strings.Join(ids, "\x00") == strings.Join(a.giftIDs, "\x00") && len(ids) == len(a.giftIDs) {
		return
	}
	items := make([]list.Item, len(gifts))
	for i, g := range gifts {
		items[i] = giftItem{gift: g}
	}
	a.giftMenu.SetItems(items)
	a.giftIDs = ids
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch a.snap.Session.Screen {
	case flow.ScreenCountdown:
		switch key {
		case "enter", " ":
			a.send(flow.Enter{})
		case "q", "esc":
			return tea.Quit
		}

	case flow.ScreenConsent:
		switch key {
		case "y", "Y", "enter":
			a.send(flow.Accept{})
		case "n", "N":
			a.send(flow.Decline{})
		case "q":
			return tea.Quit
		}

	case flow.ScreenCandleBlow:
		switch key {
		case " ", "b", "enter":
			a.send(flow.Blow{})
		case "q":
			return tea.Quit
		}

	case flow.ScreenCard:
		switch key {
		case "enter", " ":
			a.send(flow.Continue{})
		case "q":
			return tea.Quit
		}

	case flow.ScreenGiftPick:
		switch key {
		case "enter":
			if item, ok := a.giftMenu.SelectedItem().(giftItem); ok {
				a.send(flow.Pick{GiftID: item.gift.ID})
			}
			return nil
		case "q":
			return tea.Quit
		}
		var cmd tea.Cmd
		a.giftMenu, cmd = a.giftMenu.Update(msg)
		return cmd

	case flow.ScreenReward:
		switch key {
		case "p", "left":
			a.send(flow.PickAnother{})
		case "w", "enter":
			a.send(flow.WriteLetter{})
		case "q":
			return tea.Quit
		}

	case flow.ScreenLetter:
		switch key {
		case "ctrl+s":
			a.send(flow.Submit{Content: a.letter.Value(), Sender: a.sender.Value()})
			return nil
		case "esc":
			a.send(flow.Back{})
			return nil
		case "tab", "shift+tab":
			return a.toggleLetterFocus()
		}
		return a.updateLetterFields(msg)

	case flow.ScreenDone, flow.ScreenNotFound:
		switch key {
		case "q", "enter", "esc":
			return tea.Quit
		}
	}
	return nil
}

func (a *App) toggleLetterFocus() tea.Cmd {
	if a.letterFocus == focusContent {
		a.letterFocus = focusSender
		a.letter.Blur()
		return a.sender.Focus()
	}
	a.letterFocus = focusContent
	a.sender.Blur()
	return a.letter.Focus()
}

func (a *App) updateLetterFields(msg tea.Msg) tea.Cmd {
	if a.snap.Session.SubmitPending {
		return nil
	}
	var cmd tea.Cmd
	if a.letterFocus == focusSender {
		a.sender, cmd = a.sender.Update(msg)
		return cmd
	}
	a.letter, cmd = a.letter.Update(msg)
	return cmd
}

func (a *App) View() string {
	v := a.snap.View
	var body, help string

	switch v.Screen {
	case flow.ScreenCountdown:
		body, help = a.renderCountdown(v)
	case flow.ScreenConsent:
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("%s, want to see your surprise?", v.RecipientName)),
			lipgloss.JoinHorizontal(lipgloss.Top,
				buttonStyle.Render("Yes"),
				"  ",
				declineStyle.Render(v.DeclineText),
			),
		)
		help = "y: yes · n: " + strings.ToLower(v.DeclineText)
	case flow.ScreenCandleBlow:
		body, help = renderCake(v)
	case flow.ScreenCard:
		body = cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(models.Greeting(v.RecipientName)),
			bodyStyle.Width(50).Render(v.BirthdayMessage),
		))
		help = "enter: open your gifts"
	case flow.ScreenGiftPick:
		body = a.giftMenu.View()
		help = "↑/↓: choose · enter: open"
	case flow.ScreenReward:
		body, help = renderReward(v)
	case flow.ScreenLetter:
		body, help = a.renderLetter(v)
	case flow.ScreenDone:
		body = titleStyle.Render("Thank you! 💌")
		if a.mailto != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, body,
				bodyStyle.Render("If your mail app didn't open, use this link:"),
				bodyStyle.Render(a.mailto),
			)
		}
		help = "q: quit"
	default:
		body = titleStyle.Render("Nothing to see here.")
		help = "q: quit"
	}

	if v.Notice != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, noticeStyle.Render(v.Notice))
	}
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, helpStyle.Render(help)))
}

func (a *App) renderCountdown(v flow.View) (string, string) {
	title := titleStyle.Render(fmt.Sprintf("Something special for %s is on its way", v.RecipientName))
	if v.CountdownElapsed {
		prompt := buttonStyle.Render("It's time! Press enter")
		return lipgloss.JoinVertical(lipgloss.Left, title, prompt), "enter: continue · q: quit"
	}
	r := v.Remaining
	clock := countdownStyle.Render(fmt.Sprintf("%02dd %02dh %02dm %02ds", r.Days, r.Hours, r.Minutes, r.Seconds))
	return lipgloss.JoinVertical(lipgloss.Left, title, clock), "q: quit"
}

func renderCake(v flow.View) (string, string) {
	flame := "  🔥  "
	if !v.CandleLit {
		flame = "  ~   "
	}
	cake := strings.Join([]string{
		flame,
		"  ||  ",
		" ____________ ",
		"|  ~~~~~~~~  |",
		"|____________|",
	}, "\n")
	if v.Celebrating {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("🎉 🎊 Yay! 🎊 🎉"),
			bodyStyle.Render(cake),
		), ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Make a wish and blow out the candle"),
		bodyStyle.Render(cake),
	), "space: blow"
}

func renderReward(v flow.View) (string, string) {
	content := "Hmm, this box is empty."
	if v.SelectedGift != nil {
		content = v.SelectedGift.Content
	}
	lines := []string{titleStyle.Render("You got:"), cardStyle.Render(bodyStyle.Render(content))}
	if v.SelectedGift != nil && v.SelectedGift.Image != "" {
		lines = append(lines, helpStyle.Render(v.SelectedGift.Image))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...), "p: pick another · w: write a letter"
}

func (a *App) renderLetter(v flow.View) (string, string) {
	status := ""
	if v.SubmitPending {
		status = helpStyle.Render("Sending...")
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Write a letter back to %s", v.SenderEmail)),
		a.letter.View(),
		a.sender.View(),
		status,
	)
	return body, "ctrl+s: send · tab: switch field · esc: back"
}
