package crawler

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/skybow044/dalghaksub/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSS selectors of the channel web preview markup.
const (
	selectorWrap    = ".tgme_widget_message_wrap"
	selectorMessage = ".tgme_widget_message"
	selectorText    = ".tgme_widget_message_text"
	selectorDate    = ".tgme_widget_message_date"
	selectorReply   = ".tgme_widget_message_reply"

	// attrPost holds "<channel>/<id>" on the message element.
	attrPost = "data-post"

	// permalinkBase is prefixed to data-post values when no date link exists.
	permalinkBase = "https://t.me/"
)

// ParsePage extracts the messages of one channel page, in document order
// (oldest to newest), together with the identifier of the oldest message.
//
// A wrapper without text still contributes its identifier to the cursor, so
// pages made only of media posts keep pagination moving.
func ParsePage(content io.Reader) (*model.RawPage, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, err
	}

	page := &model.RawPage{
		Messages: make([]model.Message, 0),
	}

	var oldest int64

	wraps := doc.Find(selectorWrap)
	if wraps.Length() == 0 {
		// Some mirrors drop the wrapper and only keep the text blocks.
		ownText(doc.Selection).Each(func(_ int, sel *goquery.Selection) {
			if text := NormalizeText(sel); text != "" {
				page.Messages = append(page.Messages, model.Message{Text: text})
			}
		})
		return page, nil
	}

	wraps.Each(func(_ int, wrap *goquery.Selection) {
		id, link := messageIdentity(wrap)
		if id > 0 && (oldest == 0 || id < oldest) {
			oldest = id
		}

		text := NormalizeText(ownText(wrap).First())
		if text == "" {
			return
		}
		page.Messages = append(page.Messages, model.Message{
			ID:   id,
			Text: text,
			Link: link,
		})
	})

	if oldest > 0 {
		page.Cursor = strconv.FormatInt(oldest, 10)
	}

	return page, nil
}

// ownText returns the text blocks under sel that belong to a post itself.
// Reply posts quote the earlier post in a text block of the same class.
func ownText(sel *goquery.Selection) *goquery.Selection {
	return sel.Find(selectorText).FilterFunction(func(_ int, text *goquery.Selection) bool {
		return text.Closest(selectorReply).Length() == 0
	})
}

// messageIdentity returns the post identifier and permalink of a wrapper.
// The data-post attribute wins; the date link is the fallback.
func messageIdentity(wrap *goquery.Selection) (int64, string) {
	link, _ := wrap.Find(selectorDate).First().Attr("href")

	post, ok := wrap.Find(selectorMessage).First().Attr(attrPost)
	if !ok {
		post, ok = wrap.Attr(attrPost)
	}
	if ok && post != "" {
		if link == "" {
			link = permalinkBase + post
		}
		if id := trailingID(post); id > 0 {
			return id, link
		}
	}

	return trailingID(link), link
}

// trailingID parses the numeric last path segment of "channel/123" or
// "https://t.me/channel/123?single". It returns 0 when there is none.
func trailingID(s string) int64 {
	s, _, _ = strings.Cut(s, "?")
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// NormalizeText renders a message element as plain text: <br> becomes a
// newline, all other markup is dropped, CRLF becomes LF and the result is
// trimmed. An empty selection yields an empty string.
func NormalizeText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				b.WriteString("\n")
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	text := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.TrimSpace(text)
}
