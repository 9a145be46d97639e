// Package format renders article text and timestamps for display.
package format

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Formatter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func New() *Formatter {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Formatter{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

// Markdown converts markdown to sanitized HTML.
func (f *Formatter) Markdown(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := f.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("ошибка преобразования markdown: %w", err)
	}

	return f.policy.Sanitize(buf.String()), nil
}

// Timestamp formats t as "Jan 2, 2006", with " at 03:04 PM" appended when showTime is set.
func Timestamp(t *time.Time, showTime bool) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if showTime {
		return t.Format("Jan 2, 2006 at 03:04 PM")
	}
	return t.Format("Jan 2, 2006")
}

// RelativeTime describes t relative to now ("Just now", "3 hours ago") and
// falls back to the full timestamp after a week.
func RelativeTime(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	diff := now.Sub(*t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < 7*24*time.Hour:
		return humanize.RelTime(*t, now, "ago", "from now")
	default:
		return Timestamp(t, true)
	}
}

// Count formats a counter with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}
