package types

import "time"

// TagCount pairs a token (word, hashtag, mention) with its occurrence count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats is the aggregated analytics summary for one (username, day) identity.
// It is the terminal pipeline artifact: its presence marks a run as completed,
// and it is the sole input to character derivation.
type Stats struct {
	Username       string     `json:"username"`
	Day            string     `json:"day"`
	TotalPosts     int        `json:"total_posts"`
	OriginalPosts  int        `json:"original_posts"`
	Replies        int        `json:"replies"`
	Reposts        int        `json:"reposts"`
	AverageLikes   float64    `json:"average_likes"`
	AverageReposts float64    `json:"average_reposts"`
	TopHashtags    []TagCount `json:"top_hashtags,omitempty"`
	TopMentions    []TagCount `json:"top_mentions,omitempty"`
	TopWords       []TagCount `json:"top_words,omitempty"`
	ActiveHours    [24]int    `json:"active_hours"`
	TopPosts       []Post     `json:"top_posts,omitempty"`
	GeneratedAt    time.Time  `json:"generated_at"`
}
