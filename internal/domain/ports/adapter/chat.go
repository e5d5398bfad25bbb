package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ChatChannel is the hex port for the messaging platform. The flow controller
// and menu renderer talk to the chat exclusively through it, so tests can run
// against an in-memory implementation.
type ChatChannel interface {
	// SendMessage sends a new message and returns its id.
	SendMessage(ctx context.Context, chatID int64, text string, rows [][]InlineButton) (int, error)
	// EditMessage rewrites an existing message in place.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]InlineButton) error
	// DeleteMessage removes a message; callers treat failures as best-effort.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// SendPhoto sends an image by URL with a caption and returns the message id.
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, rows [][]InlineButton) (int, error)
	// AnswerCallback acknowledges an inline-button press, optionally with an alert.
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	// FileURL resolves a platform file reference to a downloadable URL.
	FileURL(ctx context.Context, fileID string) (string, error)
}
