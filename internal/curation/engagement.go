package curation

import (
	"math"
	"time"

	"newsletter-scrapers/internal/domain/model"
)

// Quality tiers, best first.
const (
	TierFlamewar = "skip_flamewar"
	TierTrending = "trending_must_include"
	TierHigh     = "high_quality"
	TierGood     = "good"
	TierModerate = "moderate"
	TierLow      = "low"
)

// Items without a usable publish time are treated as a day old.
const defaultHoursOld = 24

// Engagement interprets likes and replies as quality signals relative to now.
func Engagement(item *model.RawItem, now time.Time) model.Engagement {
	likes := item.ImpressionsLikes
	replies := item.ImpressionsReplies

	ratio := float64(replies) / float64(max(likes, 1))
	flamewar := ratio > 1.5 && replies > 100
	highSignal := likes > 200 && ratio < 0.5
	emerging := likes > 50 && likes < 200 && ratio < 0.8

	depth := 1.0
	if kids := item.MetadataInt("kids_count"); kids > 0 {
		depth = float64(replies) / float64(kids)
	}

	hours := float64(defaultHoursOld)
	velocity := 0.0
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		hours = now.Sub(*item.PublishedAt).Hours()
		velocity = float64(likes) / math.Max(hours, 1)
	}

	return model.Engagement{
		Ratio:           round(ratio, 2),
		IsFlamewar:      flamewar,
		IsHighSignal:    highSignal,
		IsEmerging:      emerging,
		DiscussionDepth: round(depth, 2),
		Velocity:        round(velocity, 2),
		HoursOld:        round(hours, 1),
		QualityTier:     qualityTier(likes, ratio, flamewar, velocity),
	}
}

func qualityTier(likes int, ratio float64, flamewar bool, velocity float64) string {
	switch {
	case flamewar:
		return TierFlamewar
	case velocity > 20 && likes > 100:
		return TierTrending
	case likes > 300 && ratio < 0.6:
		return TierHigh
	case likes > 100:
		return TierGood
	case likes > 30:
		return TierModerate
	default:
		return TierLow
	}
}
