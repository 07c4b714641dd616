package model

// Message is a single channel post after HTML normalization.
// Line breaks are preserved, markup is stripped and the text is trimmed.
// Two messages are the same message when their Text is byte-identical.
type Message struct {
	// ID is the numeric post identifier within the channel.
	// Zero when the page did not expose one.
	ID int64 `json:"id,omitempty"`

	// Text is the normalized message body. Never empty for a kept message.
	Text string `json:"text"`

	// Link is the permalink of the post, if the page exposed one.
	Link string `json:"link,omitempty"`
}

// RawPage is the result of extracting one fetched channel page.
// It only lives for the duration of a single crawl step.
type RawPage struct {
	// Messages are the non-empty messages on the page, oldest first.
	Messages []Message

	// Cursor is the identifier of the oldest message on the page,
	// used as the "before" parameter for the next older page.
	// Empty when the page exposed no identifiers.
	Cursor string
}

// Texts returns the text of every message in order.
func Texts(messages []Message) []string {
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Text
	}
	return texts
}
