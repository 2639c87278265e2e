package model

// TopicMatch records how one topic scored against an item.
type TopicMatch struct {
	Topic           string   `json:"topic"`
	Label           string   `json:"label"`
	RawScore        int      `json:"raw_score"`
	WeightedScore   float64  `json:"weighted_score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Relevance is the keyword classification attached to an item.
type Relevance struct {
	IsAIRelevant      bool         `json:"is_ai_relevant"`
	PrimaryTopic      string       `json:"primary_topic,omitempty"`
	PrimaryTopicLabel string       `json:"primary_topic_label,omitempty"`
	Topics            []string     `json:"all_topics"`
	TopicDetails      []TopicMatch `json:"topic_details,omitempty"`
	Score             float64      `json:"relevance_score"`
	IsNoise           bool         `json:"is_noise"`
	FilterReason      string       `json:"filter_reason,omitempty"`
}
