package curation

import (
	"fmt"
	"strings"

	"newsletter-scrapers/internal/domain/model"
)

// Editorial drafts the newsletter copy for one classified item.
func Editorial(item *model.RawItem, rel model.Relevance, eng model.Engagement) model.Editorial {
	label := rel.PrimaryTopicLabel
	if label == "" {
		label = "Tech"
	}
	return model.Editorial{
		OneLiner:     oneLiner(item.Title, label),
		WhyItMatters: whyItMatters(item, rel, eng),
		AudienceFit:  audience(rel.PrimaryTopic),
		Priority:     priority(rel, eng),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func oneLiner(title, label string) string {
	t := strings.ToLower(title)
	topic := strings.ToLower(label)
	switch {
	case strings.Contains(t, "show hn"):
		return fmt.Sprintf("New %s project worth checking out", topic)
	case strings.Contains(t, "launch hn"):
		return fmt.Sprintf("YC startup launching in %s space", topic)
	case strings.Contains(t, "ask hn"):
		return fmt.Sprintf("Community discussion on %s", topic)
	// "vs" is a plain substring, so it also fires inside words like "devs".
	case containsAny(t, "benchmark", "comparison", "vs"):
		return fmt.Sprintf("Performance/comparison data for %s", topic)
	case containsAny(t, "raises", "funding", "acquisition"):
		return fmt.Sprintf("Industry news: funding/M&A in %s", topic)
	case containsAny(t, "release", "announce", "introducing"):
		return fmt.Sprintf("New release or announcement in %s", topic)
	case containsAny(t, "tutorial", "guide", "how to"):
		return fmt.Sprintf("Learning resource for %s", topic)
	default:
		return fmt.Sprintf("%s insight worth reading", label)
	}
}

func whyItMatters(item *model.RawItem, rel model.Relevance, eng model.Engagement) string {
	var signals []string
	if eng.Velocity > 20 {
		signals = append(signals, "rapidly gaining attention")
	}
	if item.ImpressionsLikes > 300 {
		signals = append(signals, "highly upvoted by HN community")
	}
	if eng.IsHighSignal {
		signals = append(signals, "quality discussion")
	}
	primary := rel.PrimaryTopic
	if strings.Contains(primary, "llm") || strings.Contains(primary, "ml_research") {
		signals = append(signals, "directly relevant to AI practitioners")
	}
	if strings.Contains(primary, "ai_infra") {
		signals = append(signals, "infrastructure implications for AI deployment")
	}
	if strings.Contains(primary, "ai_product") {
		signals = append(signals, "commercial AI application")
	}

	if len(signals) == 0 {
		return "worth monitoring"
	}
	if len(signals) > 2 {
		signals = signals[:2]
	}
	return strings.Join(signals, "; ")
}

func audience(topic string) string {
	switch topic {
	case "llm", "ml_research":
		return "AI engineers & researchers"
	case "ai_infra":
		return "ML platform engineers"
	case "ai_product":
		return "Product managers & founders"
	case "ai_ethics":
		return "AI policy & safety researchers"
	case "developer_tools":
		return "Software developers"
	case "tech_industry":
		return "Tech industry watchers"
	default:
		return "General tech audience"
	}
}

// priority is 1 (lead story) to 5.
func priority(rel model.Relevance, eng model.Engagement) int {
	switch tier := eng.QualityTier; {
	case tier == TierTrending && rel.Score > 0.6:
		return 1
	case tier == TierHigh && rel.Score > 0.5:
		return 2
	case tier == TierGood || tier == TierHigh:
		return 3
	case rel.Score > 0.3:
		return 4
	default:
		return 5
	}
}
