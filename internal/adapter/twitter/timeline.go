package twitter

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"newsletter-scrapers/internal/domain/model"
)

type graphQLError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type userResult struct {
	TypeName       string `json:"__typename"`
	RestID         string `json:"rest_id"`
	IsBlueVerified bool   `json:"is_blue_verified"`
	Core           struct {
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
	} `json:"core"`
	Legacy struct {
		ScreenName     string `json:"screen_name"`
		Name           string `json:"name"`
		FollowersCount int    `json:"followers_count"`
		Verified       bool   `json:"verified"`
		Description    string `json:"description"`
	} `json:"legacy"`
}

func (u userResult) screenName() string {
	if u.Legacy.ScreenName != "" {
		return u.Legacy.ScreenName
	}
	return u.Core.ScreenName
}

func (u userResult) displayName() string {
	if u.Legacy.Name != "" {
		return u.Legacy.Name
	}
	return u.Core.Name
}

type tweetResult struct {
	TypeName string       `json:"__typename"`
	RestID   string       `json:"rest_id"`
	Tweet    *tweetResult `json:"tweet"`
	Core     struct {
		UserResults struct {
			Result userResult `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Views struct {
		Count string `json:"count"`
	} `json:"views"`
	NoteTweet struct {
		NoteTweetResults struct {
			Result struct {
				Text string `json:"text"`
			} `json:"result"`
		} `json:"note_tweet_results"`
	} `json:"note_tweet"`
	Legacy struct {
		FullText              string          `json:"full_text"`
		CreatedAt             string          `json:"created_at"`
		FavoriteCount         int             `json:"favorite_count"`
		RetweetCount          int             `json:"retweet_count"`
		ReplyCount            int             `json:"reply_count"`
		QuoteCount            int             `json:"quote_count"`
		BookmarkCount         *int            `json:"bookmark_count"`
		Lang                  string          `json:"lang"`
		InReplyToStatusIDStr  string          `json:"in_reply_to_status_id_str"`
		IsQuoteStatus         bool            `json:"is_quote_status"`
		RetweetedStatusResult json.RawMessage `json:"retweeted_status_result"`
		Entities              struct {
			Hashtags []struct {
				Text string `json:"text"`
			} `json:"hashtags"`
			UserMentions []struct {
				ScreenName string `json:"screen_name"`
			} `json:"user_mentions"`
		} `json:"entities"`
		ExtendedEntities struct {
			Media []struct {
				Type          string `json:"type"`
				MediaURLHTTPS string `json:"media_url_https"`
				ExtAltText    string `json:"ext_alt_text"`
			} `json:"media"`
		} `json:"extended_entities"`
	} `json:"legacy"`
}

// unwrap returns the tweet behind a TweetWithVisibilityResults wrapper.
func (t *tweetResult) unwrap() *tweetResult {
	if t == nil {
		return nil
	}
	if t.TypeName == "TweetWithVisibilityResults" && t.Tweet != nil {
		return t.Tweet
	}
	return t
}

type itemContent struct {
	ItemType     string `json:"itemType"`
	TweetResults struct {
		Result *tweetResult `json:"result"`
	} `json:"tweet_results"`
}

type timelineEntry struct {
	EntryID string `json:"entryId"`
	Content struct {
		EntryType   string       `json:"entryType"`
		CursorType  string       `json:"cursorType"`
		Value       string       `json:"value"`
		ItemContent *itemContent `json:"itemContent"`
		Items       []struct {
			Item struct {
				ItemContent *itemContent `json:"itemContent"`
			} `json:"item"`
		} `json:"items"`
	} `json:"content"`
}

type timeline struct {
	Instructions []struct {
		Type    string          `json:"type"`
		Entries []timelineEntry `json:"entries"`
		Entry   *timelineEntry  `json:"entry"`
	} `json:"instructions"`
}

// page is one parsed timeline response.
type page struct {
	tweets       []*tweetResult
	bottomCursor string
}

func parseTimeline(tl timeline) page {
	var p page
	visit := func(entry timelineEntry) {
		if entry.Content.CursorType == "Bottom" || strings.HasPrefix(entry.EntryID, "cursor-bottom") {
			if entry.Content.Value != "" {
				p.bottomCursor = entry.Content.Value
			}
			return
		}
		if tweet := tweetFromContent(entry.Content.ItemContent); tweet != nil {
			p.tweets = append(p.tweets, tweet)
		}
		for _, item := range entry.Content.Items {
			if tweet := tweetFromContent(item.Item.ItemContent); tweet != nil {
				p.tweets = append(p.tweets, tweet)
			}
		}
	}

	for _, instruction := range tl.Instructions {
		for _, entry := range instruction.Entries {
			visit(entry)
		}
		if instruction.Entry != nil {
			visit(*instruction.Entry)
		}
	}
	return p
}

func tweetFromContent(content *itemContent) *tweetResult {
	if content == nil || content.ItemType != "TimelineTweet" {
		return nil
	}
	tweet := content.TweetResults.Result.unwrap()
	if tweet == nil || tweet.RestID == "" {
		return nil
	}
	return tweet
}

const titleLength = 200

func toRawItem(t *tweetResult, now time.Time) model.RawItem {
	user := t.Core.UserResults.Result
	handle := user.screenName()

	content := t.Legacy.FullText
	if note := t.NoteTweet.NoteTweetResults.Result.Text; note != "" {
		content = note
	}

	media := make([]model.Media, 0, len(t.Legacy.ExtendedEntities.Media))
	for _, m := range t.Legacy.ExtendedEntities.Media {
		media = append(media, model.Media{Type: m.Type, URL: m.MediaURLHTTPS, Alt: m.ExtAltText})
	}

	hashtags := make([]string, 0, len(t.Legacy.Entities.Hashtags))
	for _, h := range t.Legacy.Entities.Hashtags {
		hashtags = append(hashtags, h.Text)
	}
	mentions := make([]string, 0, len(t.Legacy.Entities.UserMentions))
	for _, m := range t.Legacy.Entities.UserMentions {
		mentions = append(mentions, m.ScreenName)
	}

	var views *int
	if n, err := strconv.Atoi(t.Views.Count); err == nil {
		views = model.IntPtr(n)
	}

	var published *time.Time
	if ts, err := time.Parse(time.RubyDate, t.Legacy.CreatedAt); err == nil {
		published = model.TimePtr(ts.UTC())
	}

	item := model.RawItem{
		ID:                   model.ItemID(model.SourceTwitter, t.RestID),
		Source:               model.SourceTwitter,
		SourceID:             t.RestID,
		Title:                truncateRunes(content, titleLength),
		Content:              content,
		URL:                  "https://x.com/" + handle + "/status/" + t.RestID,
		AuthorUsername:       "@" + handle,
		AuthorCategory:       "unknown",
		Media:                media,
		ImpressionsViews:     views,
		ImpressionsLikes:     t.Legacy.FavoriteCount,
		ImpressionsReposts:   t.Legacy.RetweetCount,
		ImpressionsReplies:   t.Legacy.ReplyCount,
		ImpressionsBookmarks: t.Legacy.BookmarkCount,
		ImpressionsQuotes:    model.IntPtr(t.Legacy.QuoteCount),
		ImpressionsUpdatedAt: &now,
		PublishedAt:          published,
		ScrapedAt:            now,
		Metadata: map[string]any{
			"is_retweet":          len(t.Legacy.RetweetedStatusResult) > 0 && string(t.Legacy.RetweetedStatusResult) != "null",
			"is_quote":            t.Legacy.IsQuoteStatus,
			"is_reply":            t.Legacy.InReplyToStatusIDStr != "",
			"lang":                t.Legacy.Lang,
			"hashtags":            hashtags,
			"mentions":            mentions,
			"author_display_name": user.displayName(),
			"author_followers":    user.Legacy.FollowersCount,
			"author_verified":     user.Legacy.Verified || user.IsBlueVerified,
			"author_description":  user.Legacy.Description,
		},
	}
	item.Normalize()
	return item
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
