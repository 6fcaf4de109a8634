package emotion

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/entities"
	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// Label thresholds on the compound score.
const (
	ExcitedThreshold = 0.65
	HappyThreshold   = 0.25
	AngryThreshold   = -0.65
	SadThreshold     = -0.25
	NeutralBand      = 0.15
)

// Classifier scores text with the VADER lexicon. It is safe for
// concurrent use once constructed.
type Classifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ repositories.EmotionClassifier = (*Classifier)(nil)

// NewClassifier creates a new classifier. Building the lexicon is not free,
// so construct one per process and share it.
func NewClassifier() *Classifier {
	analyzer := govader.NewSentimentIntensityAnalyzer()
	for word, valence := range valenceOverrides {
		analyzer.Lexicon[word] = valence
	}
	return &Classifier{analyzer: analyzer}
}

// Classify maps text to a label and its compound score in [-1, 1].
// Empty or whitespace-only text is neutral with a zero score.
func (c *Classifier) Classify(text string) entities.EmotionScore {
	score := c.Score(text)
	return entities.EmotionScore{Label: LabelFor(score), Score: score}
}

// LabelFor applies the label thresholds to a compound score.
func LabelFor(compound float64) entities.Emotion {
	switch {
	case compound >= ExcitedThreshold:
		return entities.EmotionExcited
	case compound >= HappyThreshold:
		return entities.EmotionHappy
	case compound <= AngryThreshold:
		return entities.EmotionAngry
	case compound <= SadThreshold:
		return entities.EmotionSad
	case compound >= -NeutralBand && compound <= NeutralBand:
		return entities.EmotionNeutral
	default:
		return entities.EmotionConcerned
	}
}

// Score returns the normalized compound sentiment of text.
func (c *Classifier) Score(text string) float64 {
	// the analyzer only splits on single spaces
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return 0
	}
	return c.analyzer.PolarityScores(text).Compound
}

// Decorate appends the emoji for label unless the text already contains it.
func Decorate(text string, label entities.Emotion) string {
	emoji := label.Emoji()
	if emoji == "" || strings.Contains(text, emoji) {
		return text
	}
	return text + " " + emoji
}
