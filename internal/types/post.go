// Package types defines the data structures exchanged between the pipeline
// stages, the artifact store, and the HTTP API.
package types

import "time"

// Post is a single record collected from a user's public feed.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
	Replies   int       `json:"replies"`
	IsReply   bool      `json:"is_reply,omitempty"`
	IsRepost  bool      `json:"is_repost,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
}

// Engagement returns the combined interaction count for a post.
func (p *Post) Engagement() int {
	return p.Likes + p.Reposts + p.Replies
}
