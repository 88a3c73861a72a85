// Package analytics aggregates raw feed records into the per-day stats
// summary. Aggregation is pure computation: no I/O, no external calls.
package analytics

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/persona-chat/internal/types"
)

// topN caps each ranked list in the summary.
const topN = 10

// topPostCount caps the highest-engagement posts carried in the summary.
const topPostCount = 5

// stopWords are excluded from the word frequency ranking.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "this": {}, "with": {},
	"you": {}, "your": {}, "are": {}, "was": {}, "but": {}, "not": {},
	"have": {}, "has": {}, "had": {}, "its": {}, "from": {}, "they": {},
	"them": {}, "will": {}, "just": {}, "what": {}, "when": {}, "how": {},
	"all": {}, "can": {}, "out": {}, "about": {}, "like": {}, "get": {},
}

// Aggregate computes the analytics summary for one identity's posts.
func Aggregate(username, day string, posts []types.Post) *types.Stats {
	stats := &types.Stats{
		Username:    username,
		Day:         day,
		TotalPosts:  len(posts),
		GeneratedAt: time.Now().UTC(),
	}

	words := make(map[string]int)
	hashtags := make(map[string]int)
	mentions := make(map[string]int)

	var likeSum, repostSum, originals int
	for _, p := range posts {
		switch {
		case p.IsRepost:
			stats.Reposts++
		case p.IsReply:
			stats.Replies++
		default:
			stats.OriginalPosts++
		}

		if !p.IsRepost {
			likeSum += p.Likes
			repostSum += p.Reposts
			originals++
		}

		if !p.Timestamp.IsZero() {
			stats.ActiveHours[p.Timestamp.UTC().Hour()]++
		}
		tallyTokens(p.Text, words, hashtags, mentions)
	}

	if originals > 0 {
		stats.AverageLikes = float64(likeSum) / float64(originals)
		stats.AverageReposts = float64(repostSum) / float64(originals)
	}

	stats.TopWords = rank(words, topN)
	stats.TopHashtags = rank(hashtags, topN)
	stats.TopMentions = rank(mentions, topN)
	stats.TopPosts = topPosts(posts, topPostCount)

	return stats
}

// tallyTokens splits post text into words, hashtags, and mentions and counts
// each into its map.
func tallyTokens(text string, words, hashtags, mentions map[string]int) {
	for _, field := range strings.Fields(text) {
		token := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '#' && r != '@'
		}))
		switch {
		case token == "":
		case strings.HasPrefix(token, "#") && len(token) > 1:
			hashtags[token]++
		case strings.HasPrefix(token, "@") && len(token) > 1:
			mentions[token]++
		case len(token) > 2 && !strings.HasPrefix(token, "http"):
			if _, skip := stopWords[token]; !skip {
				words[token]++
			}
		}
	}
}

// rank converts a tally map into a descending top-n list. Ties break
// alphabetically so output is deterministic.
func rank(tally map[string]int, n int) []types.TagCount {
	if len(tally) == 0 {
		return nil
	}
	out := make([]types.TagCount, 0, len(tally))
	for tag, count := range tally {
		out = append(out, types.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// topPosts returns the n highest-engagement original posts.
func topPosts(posts []types.Post, n int) []types.Post {
	var originals []types.Post
	for _, p := range posts {
		if !p.IsRepost {
			originals = append(originals, p)
		}
	}
	sort.SliceStable(originals, func(i, j int) bool {
		return originals[i].Engagement() > originals[j].Engagement()
	})
	if len(originals) > n {
		originals = originals[:n]
	}
	return originals
}
