package model

import (
	"fmt"
	"strings"
)

// RoomType is one of the room options offered in the creation flow.
type RoomType string

const (
	RoomLivingRoom RoomType = "living_room"
	RoomBedroom    RoomType = "bedroom"
	RoomKitchen    RoomType = "kitchen"
	RoomBathroom   RoomType = "bathroom"
	RoomOffice     RoomType = "office"
	RoomDiningRoom RoomType = "dining_room"
)

// DesignStyle is one of the interior styles offered in the creation flow.
type DesignStyle string

const (
	StyleModern        DesignStyle = "modern"
	StyleMinimalist    DesignStyle = "minimalist"
	StyleScandinavian  DesignStyle = "scandinavian"
	StyleIndustrial    DesignStyle = "industrial"
	StyleRustic        DesignStyle = "rustic"
	StyleJapandi       DesignStyle = "japandi"
	StyleBoho          DesignStyle = "boho"
	StyleMediterranean DesignStyle = "mediterranean"
	StyleMidCentury    DesignStyle = "midcentury"
	StyleArtDeco       DesignStyle = "artdeco"
)

// Rooms lists the room types in menu order.
var Rooms = []RoomType{RoomLivingRoom, RoomBedroom, RoomKitchen, RoomBathroom, RoomOffice, RoomDiningRoom}

// Styles lists the design styles in menu order.
var Styles = []DesignStyle{
	StyleModern, StyleMinimalist, StyleScandinavian, StyleIndustrial, StyleRustic,
	StyleJapandi, StyleBoho, StyleMediterranean, StyleMidCentury, StyleArtDeco,
}

var roomNames = map[RoomType]string{
	RoomLivingRoom: "living room",
	RoomBedroom:    "bedroom",
	RoomKitchen:    "kitchen",
	RoomBathroom:   "bathroom",
	RoomOffice:     "home office",
	RoomDiningRoom: "dining room",
}

var stylePrompts = map[DesignStyle]string{
	StyleModern:        "modern contemporary interior design, clean lines, neutral colors, sleek furniture, minimalist aesthetic",
	StyleMinimalist:    "minimalist interior design, simple forms, functional space, clean aesthetic, uncluttered, neutral palette",
	StyleScandinavian:  "Scandinavian interior design, light wood, white walls, natural lighting, cozy hygge atmosphere, functional beauty",
	StyleIndustrial:    "industrial loft interior design, exposed brick, metal fixtures, concrete floors, open space, raw materials",
	StyleRustic:        "rustic country interior design, natural materials, warm wood tones, stone accents, cozy cottage feel",
	StyleJapandi:       "Japandi interior design, Japanese minimalism meets Scandinavian, natural wood, clean lines, zen atmosphere, wabi-sabi aesthetic",
	StyleBoho:          "bohemian eclectic interior design, colorful textiles, layered patterns, plants, vintage pieces, relaxed vibe",
	StyleMediterranean: "Mediterranean interior design, terracotta, blue and white colors, natural textures, arched doorways, sunny atmosphere",
	StyleMidCentury:    "mid-century modern vintage interior design, retro furniture, organic shapes, wood and leather, 1950s-60s aesthetic",
	StyleArtDeco:       "Art Deco interior design, geometric patterns, luxurious materials, bold colors, glamorous 1920s-30s style, metallic accents",
}

// ValidRoom reports whether s names a known room type.
func ValidRoom(s string) bool { _, ok := roomNames[RoomType(s)]; return ok }

// ValidStyle reports whether s names a known design style.
func ValidStyle(s string) bool { _, ok := stylePrompts[DesignStyle(s)]; return ok }

// Name returns the human-readable room name used in prompts.
func (r RoomType) Name() string {
	if n, ok := roomNames[r]; ok {
		return n
	}
	return strings.ReplaceAll(string(r), "_", " ")
}

// Title returns a caption-friendly form of the style, e.g. "Mid Century".
func (s DesignStyle) Title() string {
	words := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// GenerationRequest is the value object submitted to the image backend.
// It is fully determined by the flow session at submission time and is not
// retained after the result is delivered.
type GenerationRequest struct {
	ID       string // ULID assigned at submission
	PhotoURL string // resolved source photo location
	Room     RoomType
	Style    DesignStyle
}

// Prompt renders the text prompt for the image model.
func (g GenerationRequest) Prompt() string {
	style, ok := stylePrompts[g.Style]
	if !ok {
		style = "modern interior design"
	}
	return fmt.Sprintf("A beautiful %s, %s, photorealistic, 8k, high quality, professional photography",
		g.Room.Name(), style)
}
