package tui

import (
	"context"
	"os/exec"
	"runtime"
	"sync"

	"github.com/HammerMeetNail/birthdaysurprise/internal/flow"
)

// Composer turns a letter into a mailto: link, hands it to the desktop mail
// client and shows it in the UI.
type Composer struct {
	open  func(link string) error
	mu    sync.Mutex
	links chan string
}

// NewComposer uses open to launch the mail client. A nil open only records
// the link.
func NewComposer(open func(link string) error) *Composer {
	return &Composer{open: open, links: make(chan string, 1)}
}

func (c *Composer) Compose(ctx context.Context, to, subject, body string) error {
	link := flow.MailtoURL(to, subject, body)
	c.mu.Lock()
	select {
	case <-c.links:
	default:
	}
	c.links <- link
	c.mu.Unlock()
	if c.open == nil {
		return nil
	}
	return c.open(link)
}

// Links delivers the most recent link.
func (c *Composer) Links() <-chan string {
	return c.links
}

// OpenLink asks the OS to open link with its default handler.
func OpenLink(link string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", link)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", link)
	default:
		cmd = exec.Command("xdg-open", link)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

var _ flow.Composer = (*Composer)(nil)
