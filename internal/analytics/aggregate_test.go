package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-chat/internal/types"
)

func post(text string, likes, reposts int) types.Post {
	return types.Post{
		ID:        fmt.Sprintf("%s-%d-%d", text[:min(4, len(text))], likes, reposts),
		Text:      text,
		Timestamp: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC),
		Likes:     likes,
		Reposts:   reposts,
	}
}

func TestAggregate_Counts(t *testing.T) {
	posts := []types.Post{
		post("original one", 10, 2),
		post("original two", 20, 4),
		{ID: "r1", Text: "a reply", IsReply: true, Likes: 6},
		{ID: "rt1", Text: "a repost", IsRepost: true, Likes: 999},
	}

	stats := Aggregate("alice", "2025-03-14", posts)

	assert.Equal(t, "alice", stats.Username)
	assert.Equal(t, "2025-03-14", stats.Day)
	assert.Equal(t, 4, stats.TotalPosts)
	assert.Equal(t, 2, stats.OriginalPosts)
	assert.Equal(t, 1, stats.Replies)
	assert.Equal(t, 1, stats.Reposts)
}

func TestAggregate_AveragesExcludeReposts(t *testing.T) {
	posts := []types.Post{
		post("one", 10, 2),
		post("two", 20, 4),
		{ID: "rt", Text: "repost", IsRepost: true, Likes: 1000, Reposts: 1000},
	}

	stats := Aggregate("alice", "2025-03-14", posts)

	// Reposts carry someone else's engagement and are left out
	assert.InDelta(t, 15.0, stats.AverageLikes, 0.001)
	assert.InDelta(t, 3.0, stats.AverageReposts, 0.001)
}

func TestAggregate_EmptyInput(t *testing.T) {
	stats := Aggregate("alice", "2025-03-14", nil)

	assert.Equal(t, 0, stats.TotalPosts)
	assert.Zero(t, stats.AverageLikes)
	assert.Empty(t, stats.TopWords)
	assert.Empty(t, stats.TopPosts)
}

func TestAggregate_TokenClassification(t *testing.T) {
	posts := []types.Post{
		post("Shipping the compiler rewrite #golang with @bob", 1, 0),
		post("compiler benchmarks are in #golang", 2, 0),
	}

	stats := Aggregate("alice", "2025-03-14", posts)

	require.NotEmpty(t, stats.TopHashtags)
	assert.Equal(t, types.TagCount{Tag: "#golang", Count: 2}, stats.TopHashtags[0])

	require.NotEmpty(t, stats.TopMentions)
	assert.Equal(t, types.TagCount{Tag: "@bob", Count: 1}, stats.TopMentions[0])

	require.NotEmpty(t, stats.TopWords)
	assert.Equal(t, types.TagCount{Tag: "compiler", Count: 2}, stats.TopWords[0])
}

func TestAggregate_SkipsStopWordsAndLinks(t *testing.T) {
	posts := []types.Post{
		post("the and for with https://example.com are all out", 0, 0),
	}

	stats := Aggregate("alice", "2025-03-14", posts)
	assert.Empty(t, stats.TopWords)
}

func TestAggregate_ActiveHours(t *testing.T) {
	at := func(hour int) types.Post {
		return types.Post{
			ID:        fmt.Sprintf("h%d", hour),
			Text:      "x",
			Timestamp: time.Date(2025, 3, 14, hour, 30, 0, 0, time.UTC),
		}
	}
	posts := []types.Post{at(9), at(9), at(22)}

	stats := Aggregate("alice", "2025-03-14", posts)

	assert.Equal(t, 2, stats.ActiveHours[9])
	assert.Equal(t, 1, stats.ActiveHours[22])
	assert.Equal(t, 0, stats.ActiveHours[0])
}

func TestAggregate_ZeroTimestampIgnoredInHistogram(t *testing.T) {
	stats := Aggregate("alice", "2025-03-14", []types.Post{{ID: "p", Text: "x"}})
	for hour, n := range stats.ActiveHours {
		assert.Zero(t, n, "hour %d", hour)
	}
}

func TestAggregate_TopPostsOrderedByEngagement(t *testing.T) {
	posts := []types.Post{
		post("low", 1, 0),
		post("high", 100, 50),
		post("mid", 30, 3),
		{ID: "rt", Text: "repost", IsRepost: true, Likes: 9999},
	}

	stats := Aggregate("alice", "2025-03-14", posts)

	require.Len(t, stats.TopPosts, 3)
	assert.Equal(t, "high", stats.TopPosts[0].Text)
	assert.Equal(t, "mid", stats.TopPosts[1].Text)
	assert.Equal(t, "low", stats.TopPosts[2].Text)
}

func TestRank_DeterministicTieBreak(t *testing.T) {
	tally := map[string]int{"zeta": 2, "alpha": 2, "mid": 5}

	got := rank(tally, 10)

	require.Len(t, got, 3)
	assert.Equal(t, "mid", got[0].Tag)
	assert.Equal(t, "alpha", got[1].Tag)
	assert.Equal(t, "zeta", got[2].Tag)
}

func TestRank_CapsAtN(t *testing.T) {
	tally := make(map[string]int)
	for i := 0; i < 25; i++ {
		tally[fmt.Sprintf("tag%02d", i)] = i + 1
	}

	got := rank(tally, topN)
	require.Len(t, got, topN)
	assert.Equal(t, 25, got[0].Count)
}
