package suggest

import (
	"fmt"
	"strings"
	"time"

	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/provider"
)

const systemPrompt = "You are a thoughtful assistant that helps people keep in touch with the people who matter to them. " +
	"Respond with JSON only, no commentary."

func messages(user string) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: user},
	}
}

func describeContact(b *strings.Builder, c *content.ContactDetails, now time.Time) {
	fmt.Fprintf(b, "Contact: %s\n", c.Name)
	if c.Relationship.Type != "" || c.Relationship.Tier != "" {
		fmt.Fprintf(b, "Relationship: %s (%s)\n", orUnknown(c.Relationship.Type), orUnknown(c.Relationship.Tier))
	}
	if last := c.Relationship.LastContactDate; last != nil {
		days := int(now.Sub(*last).Hours() / 24)
		fmt.Fprintf(b, "Last contact: %d days ago\n", days)
	} else {
		b.WriteString("Last contact: never\n")
	}
	if len(c.Interests) > 0 {
		fmt.Fprintf(b, "Interests: %s\n", strings.Join(c.Interests, ", "))
	}
	if c.Notes != "" {
		fmt.Fprintf(b, "Notes: %s\n", c.Notes)
	}
}

func messageSuggestionsPrompt(c *content.ContactDetails, situation string, now time.Time) []provider.Message {
	var b strings.Builder
	b.WriteString("Draft three short messages I could send to reach out to this person.\n\n")
	describeContact(&b, c, now)
	if situation != "" {
		fmt.Fprintf(&b, "Occasion: %s\n", situation)
	}
	b.WriteString("\nUse three different tones (for example warm, casual, thoughtful). ")
	b.WriteString(`Return a JSON object: {"suggestions":[{"tone":"...","message":"..."}]}`)
	return messages(b.String())
}

func eventIdeasPrompt(req EventIdeasRequest, c *content.ContactDetails, interests []string, now time.Time) []provider.Message {
	var b strings.Builder
	b.WriteString("Suggest five activities to do together.\n\n")
	if c != nil {
		describeContact(&b, c, now)
	}
	if req.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", req.Budget)
	}
	if req.GroupSize > 0 {
		fmt.Fprintf(&b, "Group size: %d\n", req.GroupSize)
	}
	if len(interests) > 0 {
		fmt.Fprintf(&b, "Shared interests: %s\n", strings.Join(interests, ", "))
	}
	b.WriteString("\n")
	b.WriteString(`Return a JSON array: [{"title":"...","description":"...","estimatedCost":"...","duration":"...","category":"..."}]`)
	return messages(b.String())
}

func conversationStartersPrompt(c *content.ContactDetails, topic string, now time.Time) []provider.Message {
	var b strings.Builder
	b.WriteString("Suggest five natural conversation starters for my next chat with this person.\n\n")
	describeContact(&b, c, now)
	if topic != "" {
		fmt.Fprintf(&b, "Topic to focus on: %s\n", topic)
	}
	b.WriteString("\n")
	b.WriteString(`Return a JSON array: [{"topic":"...","starter":"..."}]`)
	return messages(b.String())
}

func relationshipTipPrompt(stats *content.Stats) []provider.Message {
	var b strings.Builder
	b.WriteString("Give me one practical tip for maintaining my relationships this week.\n\n")
	fmt.Fprintf(&b, "Contacts: %d\n", stats.ContactCount)
	fmt.Fprintf(&b, "Inner circle: %d\n", stats.InnerCircleCount)
	fmt.Fprintf(&b, "Interactions in the last 30 days: %d\n", stats.RecentInteractionCount)
	if len(stats.UnderContacted) > 0 {
		fmt.Fprintf(&b, "Haven't been in touch lately with: %s\n", strings.Join(stats.UnderContacted, ", "))
	}
	b.WriteString("\n")
	b.WriteString(`Return a JSON object: {"title":"...","tip":"...","actionItems":["..."],"category":"..."}`)
	return messages(b.String())
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// promptText joins message contents for token estimates
func promptText(msgs []provider.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
	}
	return b.String()
}
