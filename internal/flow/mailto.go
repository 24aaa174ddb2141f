package flow

import (
	"net/url"
	"strings"
)

// MailtoURL builds a mailto: link with subject and body.
func MailtoURL(to, subject, body string) string {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if body != "" {
		q.Set("body", body)
	}
	u := url.URL{Scheme: "mailto", Opaque: to}
	// mailto bodies use %20 rather than '+' for spaces.
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String()
}
