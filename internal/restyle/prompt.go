package restyle

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NegativePrompt lists artefacts every generation call excludes. It is a
// companion constant attached to each call, not composed per request.
const NegativePrompt = "low quality, blurry, distorted, watermark, bad composition, mutation, undefined objects, weird coloring, unrealistic, noisy, grainy"

// StyleDescriptions expands a style token into the descriptive phrase the
// model is steered with. Unknown styles fall back to the raw token.
var StyleDescriptions = map[string]string{
	"Modern":       "Clean lines, neutral color palette, minimalist furniture, decluttered, high-end finishing, sleek surfaces, modern lighting.",
	"Scandinavian": "Hygge, light wood, white walls, cozy textiles, bright and airy, functional design, warm lighting, natural elements.",
	"Industrial":   "Exposed brick, metal accents, leather furniture, raw materials, loft style, concrete surfaces, vintage lighting, urban aesthetic.",
	"Bohemian":     "Eclectic decor, plants, layered textures, warm earth tones, artistic, vintage rugs, macrame, relaxed atmosphere, colorful accents.",
	"Minimalist":   "Less is more, calm, monochromatic, functional, decluttered, open space, simple geometry, high quality materials.",
	"Contemporary": "Current, trendy, sophisticated, geometric shapes, bold accents, mixed textures, polished finishes, art-forward.",
}

// RoomRules maps a room type to its preservation/placement clause. Fixed
// fixtures in wet rooms must survive restyling untouched; other rooms get
// position rules. Unknown room types contribute no clause.
var RoomRules = map[string]string{
	"living_room": "IMPORTANT: If a media console or TV stand is visible, place a large modern flat-screen TV on it. Replace any painting or artwork above the unit with the TV.",
	"bathroom":    "IMPORTANT: STRICTLY PRESERVE existing wall tiles, floor tiles, vanity cabinet, sink, tap, and toilet. Do NOT change tile patterns, size, or material. Do NOT change the vanity or sink. Only enhance lighting and update movable decor like towels, mirrors, or shower curtains.",
	"kitchen":     "IMPORTANT: STRICTLY PRESERVE the entire kitchen cabinetry, countertops, backsplash, sink, tap, stove, and oven. Do NOT change colors, materials, or styles of these permanent fixtures. ONLY add or update movable items like fruit bowls, appliances on counter, rugs, or lighting. The goal is VIRTUAL STAGING of decor, NOT RENOVATION.",
	"bedroom":     "IMPORTANT: Keep the bed in its original position. Focus on upgrading the bedding, headboard, nightstands, and rugs.",
	"dining_room": "IMPORTANT: Preserve the dining table's location and the ceiling light fixture position. Focus on updating the table style and chairs.",
}

// NormalizeStyle canonicalizes a style token so lookups tolerate casing
// differences from clients ("modern" and "Modern" name the same style).
// A cases.Caser is stateful, so a fresh one is built per call rather than
// shared across concurrent requests.
func NormalizeStyle(style string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(style)))
}

// RoomLabel converts a room-type token into its human-readable label.
func RoomLabel(roomType string) string {
	roomType = strings.TrimSpace(roomType)
	if roomType == "" {
		return "room"
	}
	return strings.ReplaceAll(roomType, "_", " ")
}

// BuildPrompt composes the generation instruction from the style and room
// type. The result has up to four clauses in fixed order: the structural hard
// constraint, the restyle directive, the quality clause, and the room-specific
// rule. The function is pure: identical inputs yield identical output.
func BuildPrompt(style, roomType string) string {
	label := RoomLabel(roomType)
	description, ok := StyleDescriptions[NormalizeStyle(style)]
	if !ok {
		description = style
	}

	clauses := []string{
		"Strictly preserve exact room structure, perspective, and original dimensions. Do NOT change the camera angle or field of view.",
		"Virtual staging of a " + label + " in " + style + " style. " + description,
		"High quality, photorealistic, interior design, 8k resolution. Keep all walls, windows, floors, and ceiling exactly as they are. Only replace movable furniture and decor to match " + style + ".",
	}
	if rule, ok := RoomRules[strings.TrimSpace(roomType)]; ok {
		clauses = append(clauses, rule)
	}

	return strings.Join(clauses, "\n")
}
