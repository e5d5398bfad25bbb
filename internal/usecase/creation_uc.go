package usecase

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/severand/InteriorBot/internal/config"
	"github.com/severand/InteriorBot/internal/domain"
	"github.com/severand/InteriorBot/internal/domain/model"
	"github.com/severand/InteriorBot/internal/domain/ports/adapter"
	"github.com/severand/InteriorBot/internal/domain/ports/repository"
	"github.com/severand/InteriorBot/internal/infra/logging"
	"github.com/severand/InteriorBot/internal/infra/metrics"
)

// Screen tells the transport layer what to render after a flow transition.
type Screen int

const (
	// ScreenNone means the input was discarded and nothing should change.
	ScreenNone Screen = iota
	ScreenMainMenu
	ScreenUploadPhoto
	ScreenChooseRoom
	ScreenChooseStyle
	ScreenNoBalance
	// ScreenResult carries the generated image URL.
	ScreenResult
	// ScreenRetry means generation failed; the style keyboard stays up.
	ScreenRetry
	// ScreenPhotoBlocked is a transient warning for a photo sent outside the
	// photo-upload step.
	ScreenPhotoBlocked
	// ScreenFlowReset is a transient warning that stray input reset the flow
	// back to photo upload.
	ScreenFlowReset
)

// Outcome is the result of one flow transition: which screen to render and the
// session state after the transition.
type Outcome struct {
	Screen    Screen
	Session   *model.Session
	ResultURL string
	Refunded  bool
	// AlbumWarn asks for a one-shot transient notice that albums are not
	// accepted and a single photo should be resent.
	AlbumWarn bool
}

// PhotoResolver turns a chat file id into a fetchable URL. Satisfied by
// adapter.ChatChannel.
type PhotoResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// Compile-time check
var _ CreationUseCase = (*creationUC)(nil)

// CreationUseCase owns the design-creation conversation: every state
// transition of the photo -> room -> style -> result flow goes through here.
type CreationUseCase interface {
	// Start enters the flow at the photo-upload step, clearing any previous
	// flow state.
	Start(ctx context.Context, tgID int64) (*Outcome, error)
	// HandlePhoto processes an uploaded photo. mediaGroupID is non-empty when
	// the photo is part of an album.
	HandlePhoto(ctx context.Context, tgID int64, isAdmin bool, fileID, mediaGroupID string) (*Outcome, error)
	// ChooseRoom records the room pick and advances to style choice.
	ChooseRoom(ctx context.Context, tgID int64, isAdmin bool, room string) (*Outcome, error)
	// ChooseStyle records the style pick, charges one credit and runs the
	// generation synchronously.
	ChooseStyle(ctx context.Context, tgID int64, isAdmin bool, style string) (*Outcome, error)
	// Back returns from style choice to room choice.
	Back(ctx context.Context, tgID int64) (*Outcome, error)
	// ChangeStyle re-enters style choice for the already-uploaded photo.
	ChangeStyle(ctx context.Context, tgID int64) (*Outcome, error)
	// HandleStray processes any non-photo, non-command input.
	HandleStray(ctx context.Context, tgID int64) (*Outcome, error)
	// MainMenu abandons the flow and returns to the idle screen.
	MainMenu(ctx context.Context, tgID int64) (*Outcome, error)
	// Session returns the current conversation state.
	Session(ctx context.Context, tgID int64) (*model.Session, error)
	// SetMenuMessage records the id of the pinned navigation message.
	SetMenuMessage(ctx context.Context, tgID int64, messageID int) error
}

type creationUC struct {
	sessions repository.SessionRepository
	credits  CreditUseCase
	gen      adapter.ImageGenerator
	photos   PhotoResolver
	policy   config.ChargePolicy
	log      *zerolog.Logger

	entropy *ulid.MonotonicEntropy
}

func NewCreationUseCase(
	sessions repository.SessionRepository,
	credits CreditUseCase,
	gen adapter.ImageGenerator,
	photos PhotoResolver,
	policy config.ChargePolicy,
	logger *zerolog.Logger,
) *creationUC {
	return &creationUC{
		sessions: sessions,
		credits:  credits,
		gen:      gen,
		photos:   photos,
		policy:   policy,
		log:      logger,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (c *creationUC) Start(ctx context.Context, tgID int64) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	s.StartFlow()
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenUploadPhoto, Session: s}, nil
}

func (c *creationUC) HandlePhoto(ctx context.Context, tgID int64, isAdmin bool, fileID, mediaGroupID string) (*Outcome, error) {
	ctx = logging.WithTgID(ctx, tgID)
	log := logging.With(ctx, c.log)
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}

	// Siblings of an already-warned album are dropped without a second
	// warning, regardless of the current step.
	if mediaGroupID != "" && s.MediaGroupID == mediaGroupID {
		metrics.InputDiscarded("album_duplicate")
		return &Outcome{Screen: ScreenNone, Session: s}, nil
	}

	if s.Step != model.StepAwaitPhoto {
		metrics.InputDiscarded("photo_out_of_flow")
		return &Outcome{Screen: ScreenPhotoBlocked, Session: s}, nil
	}

	// Albums are rejected outright: remember the batch id so only the first
	// photo warns, keep the step, store nothing. A later single photo
	// proceeds normally.
	if mediaGroupID != "" {
		s.MediaGroupID = mediaGroupID
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		metrics.InputDiscarded("album_rejected")
		log.Debug().Str("media_group_id", mediaGroupID).Msg("album rejected")
		return &Outcome{Screen: ScreenNone, Session: s, AlbumWarn: true}, nil
	}

	return c.acceptPhoto(ctx, tgID, isAdmin, s, fileID, log)
}

func (c *creationUC) acceptPhoto(ctx context.Context, tgID int64, isAdmin bool, s *model.Session, fileID string, log *zerolog.Logger) (*Outcome, error) {
	ok, err := c.credits.Allow(ctx, tgID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BalanceBlocked()
		s.ResetFlow()
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		return &Outcome{Screen: ScreenNoBalance, Session: s}, nil
	}

	s.PhotoFileID = fileID
	s.MediaGroupID = ""
	s.Step = model.StepChooseRoom
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	log.Debug().Msg("photo accepted, choosing room")
	return &Outcome{Screen: ScreenChooseRoom, Session: s}, nil
}

func (c *creationUC) ChooseRoom(ctx context.Context, tgID int64, isAdmin bool, room string) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if s.Step != model.StepChooseRoom || !model.ValidRoom(room) {
		metrics.InputDiscarded("stale_room_pick")
		return &Outcome{Screen: ScreenNone, Session: s}, nil
	}

	ok, err := c.credits.Allow(ctx, tgID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BalanceBlocked()
		s.ResetFlow()
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		return &Outcome{Screen: ScreenNoBalance, Session: s}, nil
	}

	s.Room = model.RoomType(room)
	s.Step = model.StepChooseStyle
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenChooseStyle, Session: s}, nil
}

func (c *creationUC) ChooseStyle(ctx context.Context, tgID int64, isAdmin bool, style string) (*Outcome, error) {
	defer logging.TraceDuration(c.log, "CreationUC.ChooseStyle")()
	ctx = logging.WithTgID(ctx, tgID)
	log := logging.With(ctx, c.log)

	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if s.Step != model.StepChooseStyle || !model.ValidStyle(style) {
		metrics.InputDiscarded("stale_style_pick")
		return &Outcome{Screen: ScreenNone, Session: s}, nil
	}

	ok, err := c.credits.Allow(ctx, tgID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.BalanceBlocked()
		s.ResetFlow()
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		return &Outcome{Screen: ScreenNoBalance, Session: s}, nil
	}

	// Charge before generation. The attempt policy keeps the credit no matter
	// what happens next; refund_on_failure returns it on backend errors.
	charged := false
	if !isAdmin {
		if err := c.credits.Spend(ctx, tgID); err != nil {
			if err == domain.ErrNoBalance {
				metrics.BalanceBlocked()
				s.ResetFlow()
				if serr := c.sessions.Set(ctx, tgID, s); serr != nil {
					return nil, serr
				}
				return &Outcome{Screen: ScreenNoBalance, Session: s}, nil
			}
			return nil, err
		}
		charged = true
	}

	s.Style = model.DesignStyle(style)

	photoURL, err := c.photos.FileURL(ctx, s.PhotoFileID)
	if err != nil {
		return c.generationFailed(ctx, tgID, s, charged, err, log)
	}

	req := model.GenerationRequest{
		ID:       ulid.MustNew(ulid.Now(), c.entropy).String(),
		PhotoURL: photoURL,
		Room:     s.Room,
		Style:    s.Style,
	}

	started := time.Now()
	resultURL, err := c.gen.Generate(ctx, req)
	latency := time.Since(started).Seconds()
	if err != nil {
		metrics.ObserveGeneration(string(s.Room), string(s.Style), c.gen.Name(), latency, false)
		log.Error().Err(err).Str("request_id", req.ID).Msg("generation failed")
		return c.generationFailed(ctx, tgID, s, charged, err, log)
	}
	metrics.ObserveGeneration(string(s.Room), string(s.Style), c.gen.Name(), latency, true)

	s.Step = model.StepIdle
	s.Generated = true
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	log.Info().Str("request_id", req.ID).Str("room", string(s.Room)).Str("style", string(s.Style)).Msg("design generated")
	return &Outcome{Screen: ScreenResult, Session: s, ResultURL: resultURL}, nil
}

func (c *creationUC) generationFailed(ctx context.Context, tgID int64, s *model.Session, charged bool, cause error, log *zerolog.Logger) (*Outcome, error) {
	refunded := false
	if charged && c.policy == config.ChargeRefundOnFailure {
		if err := c.credits.Refund(ctx, tgID); err != nil {
			log.Error().Err(err).Msg("refund failed")
		} else {
			refunded = true
		}
	}
	// Keep the style keyboard up so the user can retry another style.
	s.Step = model.StepChooseStyle
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenRetry, Session: s, Refunded: refunded}, nil
}

func (c *creationUC) Back(ctx context.Context, tgID int64) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if s.Step != model.StepChooseStyle {
		metrics.InputDiscarded("stale_back")
		return &Outcome{Screen: ScreenNone, Session: s}, nil
	}
	s.Step = model.StepChooseRoom
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenChooseRoom, Session: s}, nil
}

func (c *creationUC) ChangeStyle(ctx context.Context, tgID int64) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if s.PhotoFileID == "" {
		// Session expired or was reset; the stored photo is gone.
		s.StartFlow()
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		return &Outcome{Screen: ScreenUploadPhoto, Session: s}, nil
	}
	s.Step = model.StepChooseStyle
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenChooseStyle, Session: s}, nil
}

func (c *creationUC) HandleStray(ctx context.Context, tgID int64) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if s.Step == model.StepChooseRoom {
		// Unexpected input while a photo is pending a room pick invalidates
		// the upload and restarts from the photo step.
		s.StartFlow()
		if err := c.sessions.Set(ctx, tgID, s); err != nil {
			return nil, err
		}
		return &Outcome{Screen: ScreenFlowReset, Session: s}, nil
	}
	metrics.InputDiscarded("stray_text")
	return &Outcome{Screen: ScreenNone, Session: s}, nil
}

func (c *creationUC) MainMenu(ctx context.Context, tgID int64) (*Outcome, error) {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return nil, err
	}
	s.ResetFlow()
	if err := c.sessions.Set(ctx, tgID, s); err != nil {
		return nil, err
	}
	return &Outcome{Screen: ScreenMainMenu, Session: s}, nil
}

func (c *creationUC) Session(ctx context.Context, tgID int64) (*model.Session, error) {
	return c.sessions.Get(ctx, tgID)
}

func (c *creationUC) SetMenuMessage(ctx context.Context, tgID int64, messageID int) error {
	s, err := c.sessions.Get(ctx, tgID)
	if err != nil {
		return err
	}
	s.MenuMessageID = messageID
	return c.sessions.Set(ctx, tgID, s)
}
