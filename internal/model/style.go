package model

import "strings"

// StyleCategory selects a prompt template. Unknown categories are valid and
// leave the prompt untouched.
type StyleCategory string

const (
	StyleNone       StyleCategory = ""
	StyleSketch     StyleCategory = "sketch"
	StyleGhibli     StyleCategory = "ghibli"
	StyleAnime      StyleCategory = "anime"
	StylePixel      StyleCategory = "pixel"
	StyleWatercolor StyleCategory = "watercolor"
	StyleOilPaint   StyleCategory = "oil"
	StyleCyberpunk  StyleCategory = "cyberpunk"
	StyleRealistic  StyleCategory = "realistic"
)

// StyleTemplate wraps a prompt in a fixed prefix and suffix.
type StyleTemplate struct {
	Prefix string
	Suffix string
}

func (t StyleTemplate) Apply(prompt string) string {
	return t.Prefix + prompt + t.Suffix
}

var styleTemplates = map[StyleCategory]StyleTemplate{
	StyleSketch:     {Prefix: "Sketch of "},
	StyleGhibli:     {Prefix: "Ghibli art of "},
	StyleAnime:      {Prefix: "Anime illustration of "},
	StylePixel:      {Prefix: "Pixel art of ", Suffix: ", 16-bit palette"},
	StyleWatercolor: {Prefix: "Watercolor painting of "},
	StyleOilPaint:   {Prefix: "Oil painting of ", Suffix: ", thick brush strokes"},
	StyleCyberpunk:  {Prefix: "Cyberpunk scene of ", Suffix: ", neon lighting"},
	StyleRealistic:  {Prefix: "Photorealistic image of ", Suffix: ", high detail"},
}

// LookupStyle returns the template for a category and whether it is known.
// Matching ignores case and surrounding whitespace.
func LookupStyle(category string) (StyleTemplate, bool) {
	t, ok := styleTemplates[StyleCategory(strings.ToLower(strings.TrimSpace(category)))]
	return t, ok
}

// ApplyStyle rewrites prompt for a known category and is the identity for
// anything else.
func ApplyStyle(category, prompt string) string {
	t, ok := LookupStyle(category)
	if !ok {
		return prompt
	}
	return t.Apply(prompt)
}

// StyleCategories lists the known categories.
func StyleCategories() []StyleCategory {
	out := make([]StyleCategory, 0, len(styleTemplates))
	for c := range styleTemplates {
		out = append(out, c)
	}
	return out
}
