package crawler

import (
	"fmt"
	"strings"
	"testing"
)

// post is a message used to build channel page fixtures.
type post struct {
	id   int64
	html string
}

// channelPage renders a minimal channel preview page.
func channelPage(channel string, posts ...post) string {
	var b strings.Builder
	b.WriteString(`<html><body><section class="tgme_channel_history">`)
	for _, p := range posts {
		fmt.Fprintf(&b, `<div class="tgme_widget_message_wrap js-widget_message_wrap">`+
			`<div class="tgme_widget_message text_not_supported_wrap js-widget_message" data-post="%s/%d">`,
			channel, p.id)
		if p.html != "" {
			fmt.Fprintf(&b, `<div class="tgme_widget_message_text js-message_text" dir="auto">%s</div>`, p.html)
		}
		fmt.Fprintf(&b, `<div class="tgme_widget_message_info"><a class="tgme_widget_message_date" href="https://t.me/%s/%d"><time>x</time></a></div>`,
			channel, p.id)
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</section></body></html>`)
	return b.String()
}

// TestParsePage tests message extraction from a channel page.
func TestParsePage(t *testing.T) {
	t.Parallel()

	t.Run("extracts messages in document order with cursor", func(t *testing.T) {
		t.Parallel()

		html := channelPage("chan",
			post{id: 101, html: "first"},
			post{id: 102, html: "second<br/>line"},
			post{id: 103, html: "third"},
		)

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}

		if len(page.Messages) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(page.Messages))
		}
		if page.Messages[0].Text != "first" || page.Messages[2].Text != "third" {
			t.Errorf("unexpected order: %v", page.Messages)
		}
		if page.Messages[1].Text != "second\nline" {
			t.Errorf("expected <br> to become newline, got %q", page.Messages[1].Text)
		}
		if page.Messages[0].ID != 101 {
			t.Errorf("expected id 101, got %d", page.Messages[0].ID)
		}
		if page.Messages[0].Link != "https://t.me/chan/101" {
			t.Errorf("unexpected link %q", page.Messages[0].Link)
		}
		if page.Cursor != "101" {
			t.Errorf("expected cursor 101, got %q", page.Cursor)
		}
	})

	t.Run("strips markup and decodes entities", func(t *testing.T) {
		t.Parallel()

		html := channelPage("chan",
			post{id: 5, html: `  <b>vless://id@host:443?a=1&amp;b=2#n</b><br>  <a href="x">link</a>  `},
		)

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}

		want := "vless://id@host:443?a=1&b=2#n\n  link"
		if page.Messages[0].Text != want {
			t.Errorf("got %q, want %q", page.Messages[0].Text, want)
		}
	})

	t.Run("media-only posts count for cursor but not messages", func(t *testing.T) {
		t.Parallel()

		html := channelPage("chan",
			post{id: 40},
			post{id: 41, html: "text"},
		)

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}

		if len(page.Messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(page.Messages))
		}
		if page.Cursor != "40" {
			t.Errorf("expected cursor 40, got %q", page.Cursor)
		}
	})

	t.Run("whitespace-only text is discarded", func(t *testing.T) {
		t.Parallel()

		html := channelPage("chan", post{id: 7, html: "   <br>  "})

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if len(page.Messages) != 0 {
			t.Errorf("expected no messages, got %v", page.Messages)
		}
	})

	t.Run("page without message nodes", func(t *testing.T) {
		t.Parallel()

		page, err := ParsePage(strings.NewReader("<html><body><p>nothing</p></body></html>"))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if len(page.Messages) != 0 {
			t.Errorf("expected no messages, got %d", len(page.Messages))
		}
		if page.Cursor != "" {
			t.Errorf("expected empty cursor, got %q", page.Cursor)
		}
	})

	t.Run("text blocks without wrappers", func(t *testing.T) {
		t.Parallel()

		html := `<div class="tgme_widget_message_text">one</div><div class="tgme_widget_message_text">two</div>`

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if len(page.Messages) != 2 || page.Messages[1].Text != "two" {
			t.Errorf("unexpected messages %v", page.Messages)
		}
	})

	t.Run("falls back to date link for identifier", func(t *testing.T) {
		t.Parallel()

		html := `<div class="tgme_widget_message_wrap"><div class="tgme_widget_message">` +
			`<div class="tgme_widget_message_text">hello</div>` +
			`<a class="tgme_widget_message_date" href="https://t.me/chan/77?single"></a></div></div>`

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if page.Messages[0].ID != 77 {
			t.Errorf("expected id 77, got %d", page.Messages[0].ID)
		}
		if page.Cursor != "77" {
			t.Errorf("expected cursor 77, got %q", page.Cursor)
		}
	})

	t.Run("reply posts keep their own text", func(t *testing.T) {
		t.Parallel()

		reply := func(id int64, body string) string {
			return fmt.Sprintf(`<div class="tgme_widget_message_wrap"><div class="tgme_widget_message" data-post="chan/%d">`+
				`<a class="tgme_widget_message_reply" href="https://t.me/chan/10">`+
				`<div class="tgme_widget_message_author">chan</div>`+
				`<div class="tgme_widget_message_text js-message_reply_text">earlier post</div></a>`+
				`<div class="tgme_widget_message_text js-message_text">%s</div></div></div>`, id, body)
		}
		html := reply(11, "vless://id@1.2.3.4:443#a") + reply(12, "vless://id@5.6.7.8:443#b")

		page, err := ParsePage(strings.NewReader(html))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if len(page.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %v", page.Messages)
		}
		if page.Messages[0].Text != "vless://id@1.2.3.4:443#a" || page.Messages[1].Text != "vless://id@5.6.7.8:443#b" {
			t.Errorf("reply quote replaced the message text: %v", page.Messages)
		}

		bare, err := ParsePage(strings.NewReader(
			`<div class="tgme_widget_message_reply"><div class="tgme_widget_message_text">quote</div></div>` +
				`<div class="tgme_widget_message_text">own</div>`))
		if err != nil {
			t.Fatalf("ParsePage failed: %v", err)
		}
		if len(bare.Messages) != 1 || bare.Messages[0].Text != "own" {
			t.Errorf("expected only the own text block, got %v", bare.Messages)
		}
	})
}

// TestTrailingID tests identifier parsing.
func TestTrailingID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"chan/123", 123},
		{"https://t.me/chan/456", 456},
		{"https://t.me/chan/456?single", 456},
		{"https://t.me/chan/456/", 456},
		{"chan/abc", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := trailingID(tt.in); got != tt.want {
				t.Errorf("trailingID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
