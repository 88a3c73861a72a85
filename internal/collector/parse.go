package collector

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/persona-chat/internal/types"
)

// feedTimeLayout matches the timestamp title attribute on feed mirrors,
// e.g. "Sep 27, 2023 · 7:02 PM UTC".
const feedTimeLayout = "Jan 2, 2006 · 3:04 PM MST"

// ParseTimeline extracts posts and the next-page cursor from one feed page.
// The cursor is the query fragment of the "show more" link, empty when the
// feed is exhausted.
func ParseTimeline(html string) ([]types.Post, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", err
	}

	var posts []types.Post
	doc.Find(".timeline-item").Each(func(_ int, item *goquery.Selection) {
		if item.HasClass("show-more") {
			return
		}

		post := types.Post{
			Text:     strings.TrimSpace(item.Find(".tweet-content").Text()),
			IsRepost: item.Find(".retweet-header").Length() > 0,
			IsReply:  item.Find(".replying-to").Length() > 0,
		}

		if href, ok := item.Find("a.tweet-link").Attr("href"); ok {
			post.Permalink = href
			post.ID = idFromPermalink(href)
		}
		if title, ok := item.Find(".tweet-date a").Attr("title"); ok {
			if ts, err := time.Parse(feedTimeLayout, title); err == nil {
				post.Timestamp = ts
			}
		}

		item.Find(".tweet-stats .tweet-stat").Each(func(_ int, stat *goquery.Selection) {
			count := parseCount(stat.Text())
			switch {
			case stat.Find(".icon-comment").Length() > 0:
				post.Replies = count
			case stat.Find(".icon-retweet").Length() > 0:
				post.Reposts = count
			case stat.Find(".icon-heart").Length() > 0:
				post.Likes = count
			}
		})

		if post.Text != "" || post.ID != "" {
			posts = append(posts, post)
		}
	})

	cursor := ""
	doc.Find(".show-more a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.Contains(href, "cursor=") {
			if i := strings.Index(href, "?"); i >= 0 {
				cursor = href[i:]
			}
		}
	})

	return posts, cursor, nil
}

// idFromPermalink pulls the numeric status ID out of a permalink such as
// "/alice/status/1234567890#m".
func idFromPermalink(href string) string {
	const marker = "/status/"
	i := strings.Index(href, marker)
	if i < 0 {
		return ""
	}
	id := href[i+len(marker):]
	if j := strings.IndexAny(id, "#?"); j >= 0 {
		id = id[:j]
	}
	return id
}

// parseCount parses a stat like "1,234" into an int, tolerating empty text.
func parseCount(text string) int {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if text == "" {
		return 0
	}
	n := 0
	for _, r := range text {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
