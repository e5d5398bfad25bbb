package model

// FlowStep enumerates the states of the design-creation conversation.
type FlowStep string

const (
	StepIdle        FlowStep = "idle"         // main menu, no active flow
	StepAwaitPhoto  FlowStep = "await_photo"  // waiting for the room photo
	StepChooseRoom  FlowStep = "choose_room"  // photo stored, picking a room type
	StepChooseStyle FlowStep = "choose_style" // room stored, picking a style
)

// Session is everything the bot remembers about one conversation. The fields
// after Step are only meaningful for the steps that set them; every transition
// goes through CreationUseCase which switches exhaustively on Step, so a field
// is never read before its step has written it.
type Session struct {
	Step FlowStep `json:"step"`

	// MenuMessageID is the single pinned navigation message that gets edited
	// in place. It survives flow resets on purpose.
	MenuMessageID int `json:"menu_message_id,omitempty"`

	PhotoFileID  string      `json:"photo_file_id,omitempty"`
	Room         RoomType    `json:"room,omitempty"`
	Style        DesignStyle `json:"style,omitempty"`
	MediaGroupID string      `json:"media_group_id,omitempty"` // dedup key for album warnings

	// Generated marks that at least one design was produced for the stored
	// photo, which unlocks the "change style" shortcut on the result screen.
	Generated bool `json:"generated,omitempty"`
}

// NewSession returns a fresh idle session.
func NewSession() *Session { return &Session{Step: StepIdle} }

// ResetFlow clears all flow fields but keeps the pinned menu message id.
func (s *Session) ResetFlow() {
	menuID := s.MenuMessageID
	*s = Session{Step: StepIdle, MenuMessageID: menuID}
}

// StartFlow resets the flow and enters the photo-upload step.
func (s *Session) StartFlow() {
	s.ResetFlow()
	s.Step = StepAwaitPhoto
}
