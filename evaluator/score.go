package evaluator

import "math"

// Score is the quality record for one instruction text. Every dimension is in
// [0, 100].
type Score struct {
	Clarity     int    `json:"clarity"`
	Specificity int    `json:"specificity"`
	Creativity  int    `json:"creativity"`
	Structure   int    `json:"structure"`
	Overall     int    `json:"overall"`
	Suggestion  string `json:"suggestion"`
}

const defaultSuggestion = "Great job! Keep refining your prompt style."

var suggestions = map[string]string{
	"clarity":     "Try being more direct and concise. State exactly what you want the AI to do.",
	"specificity": "Add more specific details about the format, style, or requirements you need.",
	"creativity":  "Include words that encourage creative thinking, like 'innovative' or 'unique approach'.",
	"structure":   "Consider using a role (e.g., 'Act as a...') and organizing your prompt in clear sections.",
}

// finish clamps the dimensions, computes Overall and fills in a suggestion
// for the weakest dimension when none was given.
func (s Score) finish() Score {
	s.Clarity = clamp(s.Clarity)
	s.Specificity = clamp(s.Specificity)
	s.Creativity = clamp(s.Creativity)
	s.Structure = clamp(s.Structure)
	s.Overall = int(math.Round(float64(s.Clarity+s.Specificity+s.Creativity+s.Structure) / 4))
	if s.Suggestion == "" {
		s.Suggestion = suggestionFor(s)
	}
	return s
}

// suggestionFor picks the lowest dimension, first one wins on ties.
func suggestionFor(s Score) string {
	dims := []struct {
		name  string
		value int
	}{
		{"clarity", s.Clarity},
		{"specificity", s.Specificity},
		{"creativity", s.Creativity},
		{"structure", s.Structure},
	}
	lowest := dims[0]
	for _, d := range dims[1:] {
		if d.value < lowest.value {
			lowest = d
		}
	}
	if text, ok := suggestions[lowest.name]; ok {
		return text
	}
	return defaultSuggestion
}

func clamp(v int) int {
	return max(0, min(100, v))
}
