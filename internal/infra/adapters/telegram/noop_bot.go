package telegram

import (
	"context"
	"sync"

	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ChatChannel = (*NoopChannel)(nil)

// NoopChannel is an in-memory ChatChannel used in tests and dry runs. It
// records every operation and hands out increasing message ids.
type NoopChannel struct {
	mu     sync.Mutex
	nextID int

	Sent    []NoopMessage
	Edits   []NoopMessage
	Deleted []int
	Photos  []NoopPhoto
	Answers []string

	// EditErr makes every EditMessage call fail, to exercise the send-fresh
	// fallback of the menu renderer.
	EditErr error
}

type NoopMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Rows      [][]adapter.InlineButton
}

type NoopPhoto struct {
	ChatID   int64
	PhotoURL string
	Caption  string
}

func NewNoopChannel() *NoopChannel { return &NoopChannel{} }

func (n *NoopChannel) SendMessage(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.Sent = append(n.Sent, NoopMessage{ChatID: chatID, MessageID: n.nextID, Text: text, Rows: rows})
	return n.nextID, nil
}

func (n *NoopChannel) EditMessage(ctx context.Context, chatID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.EditErr != nil {
		return n.EditErr
	}
	n.Edits = append(n.Edits, NoopMessage{ChatID: chatID, MessageID: messageID, Text: text, Rows: rows})
	return nil
}

func (n *NoopChannel) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Deleted = append(n.Deleted, messageID)
	return nil
}

func (n *NoopChannel) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, rows [][]adapter.InlineButton) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.Photos = append(n.Photos, NoopPhoto{ChatID: chatID, PhotoURL: photoURL, Caption: caption})
	return n.nextID, nil
}

func (n *NoopChannel) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Answers = append(n.Answers, callbackID)
	return nil
}

func (n *NoopChannel) FileURL(ctx context.Context, fileID string) (string, error) {
	return "https://files.invalid/" + fileID, nil
}
