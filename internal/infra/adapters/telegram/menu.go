package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/infra/metrics"
)

const transientTTL = 5 * time.Second

// menuStore persists the adopted pinned-message id. Satisfied by
// usecase.CreationUseCase.
type menuStore interface {
	SetMenuMessage(ctx context.Context, tgID int64, messageID int) error
}

// MenuRenderer maintains one pinned navigation message per chat and edits it
// in place as the user moves through the flow. When the edit fails (the
// message was deleted or is too old) it sends a fresh message, adopts its id
// and best-effort deletes the stale one.
type MenuRenderer struct {
	ch    adapter.ChatChannel
	menus menuStore
	log   *zerolog.Logger
}

func NewMenuRenderer(ch adapter.ChatChannel, menus menuStore, logger *zerolog.Logger) *MenuRenderer {
	return &MenuRenderer{ch: ch, menus: menus, log: logger}
}

// Show renders text plus keyboard on the pinned message. menuID is the id
// from the current session; 0 means no pinned message exists yet.
func (m *MenuRenderer) Show(ctx context.Context, chatID int64, menuID int, text string, rows [][]adapter.InlineButton) error {
	if menuID != 0 {
		if err := m.ch.EditMessage(ctx, chatID, menuID, text, rows); err == nil {
			return nil
		}
		metrics.MenuEditFallback()
		m.log.Debug().Int64("chat_id", chatID).Int("menu_id", menuID).Msg("menu edit failed, sending fresh message")
	}

	newID, err := m.ch.SendMessage(ctx, chatID, text, rows)
	if err != nil {
		return err
	}
	if menuID != 0 {
		// Best effort: a stale menu left behind is cosmetic.
		_ = m.ch.DeleteMessage(ctx, chatID, menuID)
	}
	return m.menus.SetMenuMessage(ctx, chatID, newID)
}

// Transient sends a short-lived warning and deletes it after a few seconds.
// Used for album notices and out-of-flow input.
func (m *MenuRenderer) Transient(ctx context.Context, chatID int64, text string) {
	id, err := m.ch.SendMessage(ctx, chatID, text, nil)
	if err != nil {
		m.log.Warn().Err(err).Int64("chat_id", chatID).Msg("transient warning send failed")
		return
	}
	go func() {
		timer := time.NewTimer(transientTTL)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		dctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = m.ch.DeleteMessage(dctx, chatID, id)
	}()
}
