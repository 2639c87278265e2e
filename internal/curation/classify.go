package curation

import (
	"math"
	"strings"

	"newsletter-scrapers/internal/domain/model"
)

// Classify scores title and content against the taxonomy. It only reads its
// inputs, so classifying the same item twice gives the same result.
func (t *Taxonomy) Classify(title, content string) model.Relevance {
	title = strings.ToLower(title)
	text := title + " " + strings.ToLower(content)

	for _, kw := range t.NoiseKeywords {
		if kw != "" && strings.Contains(text, kw) {
			return model.Relevance{
				Topics:       []string{},
				IsNoise:      true,
				FilterReason: "noise_keyword: " + kw,
			}
		}
	}

	var (
		matches []model.TopicMatch
		total   float64
		primary int
	)
	for _, topic := range t.Topics {
		score := 0
		var matched []string
		for _, kw := range topic.Keywords {
			if kw == "" || !strings.Contains(text, kw) {
				continue
			}
			if strings.Contains(title, kw) {
				score += 2
			} else {
				score++
			}
			matched = append(matched, kw)
		}
		if score == 0 {
			continue
		}
		weighted := float64(score) * topic.Weight
		if len(matches) > 0 && weighted > matches[primary].WeightedScore {
			primary = len(matches)
		}
		matches = append(matches, model.TopicMatch{
			Topic:           topic.ID,
			Label:           topic.Label,
			RawScore:        score,
			WeightedScore:   weighted,
			MatchedKeywords: matched,
		})
		total += weighted
	}

	if len(matches) == 0 {
		return model.Relevance{
			Topics:       []string{},
			IsNoise:      true,
			FilterReason: "no_ai_keywords_matched",
		}
	}

	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		topics = append(topics, m.Topic)
	}
	return model.Relevance{
		IsAIRelevant:      true,
		PrimaryTopic:      matches[primary].Topic,
		PrimaryTopicLabel: matches[primary].Label,
		Topics:            topics,
		TopicDetails:      matches,
		Score:             round(math.Min(total/10, 1), 2),
	}
}

// ClassifyItem classifies a RawItem by its title and content.
func (t *Taxonomy) ClassifyItem(item *model.RawItem) model.Relevance {
	return t.Classify(item.Title, item.Content)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
