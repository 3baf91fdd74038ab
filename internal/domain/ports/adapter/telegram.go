package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// SendOptions controls how a chat message is delivered. ReplyTo of 0 means a
// plain, un-threaded send.
type SendOptions struct {
	ReplyTo            int
	DisableLinkPreview bool
	Buttons            [][]InlineButton
}

// ChatTransport is the outbound chat collaborator. Send returns the
// transport's message identifier, which callers persist so that future
// notifications can reply-thread onto this one. Delivery failure is a
// recoverable error.
type ChatTransport interface {
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
}
