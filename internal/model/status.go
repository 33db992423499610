package model

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"
)

// plainWidth is the column limit for rendered status text.
const plainWidth = 20

// Status is a Mastodon post. Reblog holds the boosted post, if any.
type Status struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Account     Account `json:"account"`
	Content     string  `json:"content"`
	Reblog      *Status `json:"reblog,omitempty"`
	InReplyToID *string `json:"in_reply_to_id,omitempty"`
}

// blockTags end a line of text when they open or close.
var blockTags = map[string]bool{
	"p":          true,
	"br":         true,
	"div":        true,
	"li":         true,
	"blockquote": true,
}

// PlainContent renders the HTML content as plain text wrapped at a fixed
// width.
func (s Status) PlainContent() string {
	text := stripMarkup(s.Content)
	if text == "" {
		return ""
	}
	return ansi.Wordwrap(text, plainWidth, "")
}

// stripMarkup drops tags and collapses whitespace, turning block elements
// into line breaks.
func stripMarkup(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))

	var lines []string
	var line strings.Builder
	flush := func() {
		if text := strings.Join(strings.Fields(line.String()), " "); text != "" {
			lines = append(lines, text)
		}
		line.Reset()
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return strings.TrimSpace(content)
			}
			flush()
			return strings.Join(lines, "\n")
		case html.TextToken:
			line.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				flush()
			}
		}
	}
}
