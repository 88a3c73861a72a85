package character

import (
	"fmt"
	"strings"

	"github.com/jonathan/persona-chat/internal/types"
)

// buildDerivationPrompt constructs the structured extraction prompt from an
// analytics summary. The model must answer with a single JSON object that
// satisfies character_schema.json.
func buildDerivationPrompt(stats *types.Stats) string {
	var sb strings.Builder

	sb.WriteString("You are building a chat persona from a user's public feed activity.\n")
	sb.WriteString("Study the analytics below and respond with ONLY a JSON object with these fields:\n")
	sb.WriteString(`  "name": display name for the persona` + "\n")
	sb.WriteString(`  "handle": the user's handle` + "\n")
	sb.WriteString(`  "bio": one-sentence bio` + "\n")
	sb.WriteString(`  "description": a detailed description of how this person writes and what they care about` + "\n")
	sb.WriteString(`  "system_prompt_prefix": instructions that put a model in character before the description` + "\n")
	sb.WriteString(`  "system_prompt_suffix": closing instructions (style, tone, things to avoid)` + "\n\n")

	fmt.Fprintf(&sb, "Handle: @%s\n", stats.Username)
	fmt.Fprintf(&sb, "Posts analyzed: %d (%d original, %d replies, %d reposts)\n",
		stats.TotalPosts, stats.OriginalPosts, stats.Replies, stats.Reposts)
	fmt.Fprintf(&sb, "Average engagement: %.1f likes, %.1f reposts\n", stats.AverageLikes, stats.AverageReposts)

	writeTagSection(&sb, "Frequent words", stats.TopWords)
	writeTagSection(&sb, "Hashtags", stats.TopHashtags)
	writeTagSection(&sb, "Mentions", stats.TopMentions)

	if len(stats.TopPosts) > 0 {
		sb.WriteString("\nHighest-engagement posts:\n")
		for _, p := range stats.TopPosts {
			fmt.Fprintf(&sb, "- %s\n", p.Text)
		}
	}

	return sb.String()
}

func writeTagSection(sb *strings.Builder, label string, tags []types.TagCount) {
	if len(tags) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s: ", label)
	for i, t := range tags {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s (%d)", t.Tag, t.Count)
	}
	sb.WriteString("\n")
}
