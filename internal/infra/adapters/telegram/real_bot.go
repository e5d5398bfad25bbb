package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/application"
	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/infra/logging"
	"github.com/severand/InteriorBot/internal/infra/metrics"
	red "github.com/severand/InteriorBot/internal/infra/redis"
	"github.com/severand/InteriorBot/internal/usecase"
)

// Bot polls Telegram updates and drives the facade. One dispatcher goroutine
// fans updates out to a fixed pool of workers, so a slow generation never
// stalls other chats.
type Bot struct {
	api         *tgbotapi.BotAPI
	ch          adapter.ChatChannel
	menu        *MenuRenderer
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	cfg         *config.BotConfig
	log         *zerolog.Logger

	workers       int
	cancelPolling context.CancelFunc
}

func NewBot(
	cfg *config.BotConfig,
	ch *Channel,
	facade *application.BotFacade,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if ch == nil {
		return nil, errors.New("chat channel is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	return &Bot{
		api:         ch.bot,
		ch:          ch,
		menu:        NewMenuRenderer(ch, facade.CreationUC, logger),
		facade:      facade,
		rateLimiter: rateLimiter,
		cfg:         cfg,
		log:         logger,
		workers:     cfg.Workers,
	}, nil
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.handleUpdate(ctx, up); err != nil {
						b.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	b.log.Info().Int("workers", b.workers).Str("bot", b.api.Self.UserName).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		metrics.IncUpdate("callback")
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	msg := update.Message
	tgID := msg.From.ID
	ctx = logging.WithTgID(ctx, tgID)

	if b.rateLimiter != nil {
		kind := "message"
		if msg.IsCommand() {
			kind = "command"
		}
		allowed, err := b.rateLimiter.Allow(ctx, red.UserUpdateKey(tgID, kind), 30, time.Minute)
		if err != nil {
			b.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.InputDiscarded("rate_limited")
			return nil
		}
	}

	if msg.IsCommand() {
		metrics.IncUpdate("command")
		return b.handleCommand(ctx, msg)
	}
	if len(msg.Photo) > 0 {
		metrics.IncUpdate("photo")
		return b.handlePhoto(ctx, msg)
	}
	metrics.IncUpdate("text")
	return b.handleStray(ctx, msg)
}

// ----- commands -----

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	switch msg.Command() {
	case "start":
		user, created, err := b.facade.HandleStart(ctx, tgID, msg.From.UserName, strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		// /start always pins a fresh menu; the old one, if any, is replaced.
		s, err := b.facade.CreationUC.Session(ctx, tgID)
		if err != nil {
			return err
		}
		return b.menu.Show(ctx, tgID, s.MenuMessageID, textWelcome(user, created), mainMenuKeyboard())

	case "profile":
		return b.showProfile(ctx, tgID, 0)

	case "stats":
		if !b.facade.IsAdmin(tgID) {
			return nil
		}
		return b.sendStats(ctx, tgID)

	case "grant":
		if !b.facade.IsAdmin(tgID) {
			return nil
		}
		return b.adminGrant(ctx, tgID, msg.CommandArguments())

	case "setbalance":
		if !b.facade.IsAdmin(tgID) {
			return nil
		}
		return b.adminSetBalance(ctx, tgID, msg.CommandArguments())

	default:
		metrics.InputDiscarded("unknown_command")
		return nil
	}
}

func (b *Bot) sendStats(ctx context.Context, tgID int64) error {
	stats, err := b.facade.StatsUC.Collect(ctx)
	if err != nil {
		_, serr := b.ch.SendMessage(ctx, tgID, "Не удалось собрать статистику.", nil)
		if serr != nil {
			return serr
		}
		return err
	}
	text := fmt.Sprintf(
		"📊 <b>Статистика</b>\n\n"+
			"Пользователей: %d (неактивных 30д: %d)\n"+
			"Генераций на балансах: %d\n\n"+
			"Выручка: неделя %d ₽ / месяц %d ₽ / год %d ₽\n"+
			"Платежи: %d успешных, %d в ожидании",
		stats.TotalUsers, stats.InactiveUsers, stats.CreditsOutstanding,
		stats.RevenueWeekRUB, stats.RevenueMonthRUB, stats.RevenueYearRUB,
		stats.PaymentsSucceeded, stats.PaymentsPending,
	)
	_, err = b.ch.SendMessage(ctx, tgID, text, nil)
	return err
}

func parseAdminArgs(args string) (int64, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, domain.ErrInvalidArgument
	}
	target, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, domain.ErrInvalidArgument
	}
	amount, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, domain.ErrInvalidArgument
	}
	return target, amount, nil
}

func (b *Bot) adminGrant(ctx context.Context, adminID int64, args string) error {
	target, amount, err := parseAdminArgs(args)
	if err != nil {
		_, err := b.ch.SendMessage(ctx, adminID, "Использование: /grant <tg_id> <количество>", nil)
		return err
	}
	if err := b.facade.CreditUC.Grant(ctx, target, amount); err != nil {
		_, serr := b.ch.SendMessage(ctx, adminID, fmt.Sprintf("Не получилось: %v", err), nil)
		if serr != nil {
			return serr
		}
		return nil
	}
	_, err = b.ch.SendMessage(ctx, adminID, fmt.Sprintf("✅ Начислено %d генераций пользователю %d.", amount, target), nil)
	return err
}

func (b *Bot) adminSetBalance(ctx context.Context, adminID int64, args string) error {
	target, amount, err := parseAdminArgs(args)
	if err != nil {
		_, err := b.ch.SendMessage(ctx, adminID, "Использование: /setbalance <tg_id> <баланс>", nil)
		return err
	}
	if err := b.facade.CreditUC.Set(ctx, target, amount); err != nil {
		_, serr := b.ch.SendMessage(ctx, adminID, fmt.Sprintf("Не получилось: %v", err), nil)
		if serr != nil {
			return serr
		}
		return nil
	}
	_, err = b.ch.SendMessage(ctx, adminID, fmt.Sprintf("✅ Баланс пользователя %d теперь %d.", target, amount), nil)
	return err
}

// ----- messages -----

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	// Telegram sends several sizes; the last one is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	out, err := b.facade.CreationUC.HandlePhoto(ctx, tgID, b.facade.IsAdmin(tgID), fileID, msg.MediaGroupID)
	if err != nil {
		return fmt.Errorf("handle photo: %w", err)
	}

	// The user's photo message itself is deleted for every outcome except an
	// accepted photo, keeping the chat tidy.
	switch out.Screen {
	case usecase.ScreenNone:
		_ = b.ch.DeleteMessage(ctx, tgID, msg.MessageID)
		if out.AlbumWarn {
			b.menu.Transient(ctx, tgID, textAlbumNotice)
		}
		return nil
	case usecase.ScreenPhotoBlocked:
		_ = b.ch.DeleteMessage(ctx, tgID, msg.MessageID)
		b.menu.Transient(ctx, tgID, textPhotoBlocked)
		return nil
	case usecase.ScreenNoBalance:
		_ = b.ch.DeleteMessage(ctx, tgID, msg.MessageID)
		return b.menu.Show(ctx, tgID, out.Session.MenuMessageID, textNoBalance, noBalanceKeyboard())
	}

	return b.renderFlow(ctx, tgID, out)
}

func (b *Bot) handleStray(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	out, err := b.facade.CreationUC.HandleStray(ctx, tgID)
	if err != nil {
		return fmt.Errorf("handle stray: %w", err)
	}
	switch out.Screen {
	case usecase.ScreenFlowReset:
		_ = b.ch.DeleteMessage(ctx, tgID, msg.MessageID)
		b.menu.Transient(ctx, tgID, textFlowReset)
		return b.menu.Show(ctx, tgID, out.Session.MenuMessageID, textUploadPhoto, uploadPhotoKeyboard())
	default:
		return nil
	}
}

// ----- callbacks -----

type cbHandler func(ctx context.Context, tgID int64, data string) error

func (b *Bot) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbCreateDesign: func(ctx context.Context, tgID int64, _ string) error {
			out, err := b.facade.CreationUC.Start(ctx, tgID)
			if err != nil {
				return err
			}
			return b.renderFlow(ctx, tgID, out)
		},
		cbMainMenu: func(ctx context.Context, tgID int64, _ string) error {
			out, err := b.facade.CreationUC.MainMenu(ctx, tgID)
			if err != nil {
				return err
			}
			return b.renderFlow(ctx, tgID, out)
		},
		cbBackToRoom: func(ctx context.Context, tgID int64, _ string) error {
			out, err := b.facade.CreationUC.Back(ctx, tgID)
			if err != nil {
				return err
			}
			return b.renderFlow(ctx, tgID, out)
		},
		cbChangeStyle: func(ctx context.Context, tgID int64, _ string) error {
			out, err := b.facade.CreationUC.ChangeStyle(ctx, tgID)
			if err != nil {
				return err
			}
			return b.renderFlow(ctx, tgID, out)
		},
		cbShowProfile: func(ctx context.Context, tgID int64, _ string) error {
			return b.showProfile(ctx, tgID, 0)
		},
		cbBuy: func(ctx context.Context, tgID int64, _ string) error {
			s, err := b.facade.CreationUC.Session(ctx, tgID)
			if err != nil {
				return err
			}
			return b.menu.Show(ctx, tgID, s.MenuMessageID, textBuyTitle, packagesKeyboard(b.facade.PaymentUC.Packages()))
		},
		cbCheckPayment: func(ctx context.Context, tgID int64, _ string) error {
			return b.checkPayment(ctx, tgID)
		},
		cbExchange: func(ctx context.Context, tgID int64, _ string) error {
			credits, err := b.facade.ReferralUC.Exchange(ctx, tgID)
			if err != nil {
				if errors.Is(err, domain.ErrNoBalance) {
					b.menu.Transient(ctx, tgID, textExchangeNothing)
					return nil
				}
				return err
			}
			b.menu.Transient(ctx, tgID, textExchanged(credits))
			return b.showProfile(ctx, tgID, 0)
		},
	}
}

func (b *Bot) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: cbRoomPrefix,
			Fn: func(ctx context.Context, tgID int64, data string) error {
				room := strings.TrimPrefix(data, cbRoomPrefix)
				out, err := b.facade.CreationUC.ChooseRoom(ctx, tgID, b.facade.IsAdmin(tgID), room)
				if err != nil {
					return err
				}
				return b.renderFlow(ctx, tgID, out)
			},
		},
		{
			Prefix: cbStylePrefix,
			Fn: func(ctx context.Context, tgID int64, data string) error {
				style := strings.TrimPrefix(data, cbStylePrefix)
				s, err := b.facade.CreationUC.Session(ctx, tgID)
				if err != nil {
					return err
				}
				// Switch the pinned message to a progress note before the
				// blocking generation call. Stale presses skip it so the menu
				// is not stranded on a button-less screen.
				if s.Step == model.StepChooseStyle {
					_ = b.menu.Show(ctx, tgID, s.MenuMessageID, textGenerating, nil)
				}

				out, err := b.facade.CreationUC.ChooseStyle(ctx, tgID, b.facade.IsAdmin(tgID), style)
				if err != nil {
					return err
				}
				return b.renderFlow(ctx, tgID, out)
			},
		},
		{
			Prefix: cbPayPrefix,
			Fn: func(ctx context.Context, tgID int64, data string) error {
				key := strings.TrimPrefix(data, cbPayPrefix)
				return b.createInvoice(ctx, tgID, key)
			},
		},
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil {
		return nil
	}
	tgID := q.From.ID
	ctx = logging.WithTgID(ctx, tgID)

	// Acknowledge immediately so the button stops spinning.
	_ = b.ch.AnswerCallback(ctx, q.ID, "", false)

	data := q.Data
	if fn, ok := b.cbRoutes()[data]; ok {
		return fn(ctx, tgID, data)
	}
	for _, route := range b.cbPrefixRoutes() {
		if strings.HasPrefix(data, route.Prefix) {
			return route.Fn(ctx, tgID, data)
		}
	}
	metrics.InputDiscarded("unknown_callback")
	return nil
}

// ----- rendering -----

// renderFlow maps a flow outcome onto the pinned menu message.
func (b *Bot) renderFlow(ctx context.Context, tgID int64, out *usecase.Outcome) error {
	menuID := out.Session.MenuMessageID
	switch out.Screen {
	case usecase.ScreenNone:
		return nil
	case usecase.ScreenMainMenu:
		return b.menu.Show(ctx, tgID, menuID, textMainMenu, mainMenuKeyboard())
	case usecase.ScreenUploadPhoto:
		return b.menu.Show(ctx, tgID, menuID, textUploadPhoto, uploadPhotoKeyboard())
	case usecase.ScreenChooseRoom:
		return b.menu.Show(ctx, tgID, menuID, textChooseRoom, roomKeyboard())
	case usecase.ScreenChooseStyle:
		return b.menu.Show(ctx, tgID, menuID, textChooseStyle, styleKeyboard())
	case usecase.ScreenNoBalance:
		return b.menu.Show(ctx, tgID, menuID, textNoBalance, noBalanceKeyboard())
	case usecase.ScreenRetry:
		text := textGenerationFailed
		if out.Refunded {
			text = textGenerationRefunded
		}
		b.menu.Transient(ctx, tgID, text)
		b.notifyAdmins(ctx, fmt.Sprintf("⚠️ Ошибка генерации у пользователя %d.", tgID))
		return b.menu.Show(ctx, tgID, menuID, textChooseStyle, retryKeyboard())
	case usecase.ScreenResult:
		// The result is a fresh photo message below the pinned menu; the menu
		// switches to the post-generation actions.
		if _, err := b.ch.SendPhoto(ctx, tgID, out.ResultURL, textResult(out.Session.Style), nil); err != nil {
			b.log.Error().Err(err).Msg("result photo send failed")
			b.menu.Transient(ctx, tgID, textGenerationFailed)
		}
		return b.menu.Show(ctx, tgID, menuID, textResult(out.Session.Style), resultKeyboard())
	default:
		return nil
	}
}

// notifyAdmins sends a best-effort heads-up to every configured admin chat.
func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for _, id := range b.cfg.AdminIDs {
		if _, err := b.ch.SendMessage(ctx, id, text, nil); err != nil {
			b.log.Warn().Err(err).Int64("admin_id", id).Msg("admin notify failed")
		}
	}
}

func (b *Bot) showProfile(ctx context.Context, tgID int64, _ int) error {
	user, ref, err := b.facade.Profile(ctx, tgID)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	s, err := b.facade.CreationUC.Session(ctx, tgID)
	if err != nil {
		return err
	}
	canExchange := ref.ReferralBalance > 0
	return b.menu.Show(ctx, tgID, s.MenuMessageID, textProfile(user, ref), profileKeyboard(canExchange))
}

func (b *Bot) createInvoice(ctx context.Context, tgID int64, packageKey string) error {
	inv, err := b.facade.PaymentUC.CreateInvoice(ctx, tgID, packageKey)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			metrics.InputDiscarded("unknown_package")
			return nil
		}
		b.menu.Transient(ctx, tgID, textPaymentFailed)
		return err
	}
	pkg := model.CreditPackage{Name: fmt.Sprintf("%d генераций", inv.Payment.Credits), PriceRUB: inv.Payment.AmountRUB}
	for _, p := range b.facade.PaymentUC.Packages() {
		if p.Key == packageKey {
			pkg = p
			break
		}
	}
	s, err := b.facade.CreationUC.Session(ctx, tgID)
	if err != nil {
		return err
	}
	return b.menu.Show(ctx, tgID, s.MenuMessageID, textInvoice(pkg), invoiceKeyboard(inv.RedirectURL))
}

func (b *Bot) checkPayment(ctx context.Context, tgID int64) error {
	p, err := b.facade.PaymentUC.CheckPending(ctx, tgID)
	switch {
	case errors.Is(err, domain.ErrPaymentPending):
		b.menu.Transient(ctx, tgID, textPaymentPending)
		return nil
	case errors.Is(err, domain.ErrPaymentNotFound):
		b.menu.Transient(ctx, tgID, textPaymentNotFound)
		return nil
	case err != nil:
		return fmt.Errorf("check payment: %w", err)
	}

	s, serr := b.facade.CreationUC.Session(ctx, tgID)
	if serr != nil {
		return serr
	}
	if p.Status == model.PaymentStatusSucceeded {
		return b.menu.Show(ctx, tgID, s.MenuMessageID, textPaymentDone(p.Credits), mainMenuKeyboard())
	}
	b.menu.Transient(ctx, tgID, textPaymentFailed)
	return b.menu.Show(ctx, tgID, s.MenuMessageID, textBuyTitle, packagesKeyboard(b.facade.PaymentUC.Packages()))
}
