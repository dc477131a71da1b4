package content

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/breakeven/internal/content/domain"
)

const documentSchema = `{
  "hero": {"title": "...", "subtitle": "..."},
  "about": {"title": "...", "body": "..."},
  "services_title": "...",
  "services": [
    {"name": "...", "description": "...", "price_hint": "..."},
    {"name": "...", "description": "...", "price_hint": "..."},
    {"name": "...", "description": "...", "price_hint": "..."}
  ],
  "contact": {"title": "...", "description": "...", "cta": "..."},
  "footer_text": "...",
  "seo": {"title": "...", "description": "...", "keywords": ["...", "...", "..."]},
  "trust": {"highlights": ["...", "...", "..."]},
  "local": {"area_blurb": "...", "landmarks": ["..."]}
}`

// BuildPrompt renders the generation prompt for one business.
func BuildPrompt(in domain.Input) string {
	var b strings.Builder
	b.WriteString("You write website copy for small local businesses.\n")
	fmt.Fprintf(&b, "Business name: %s\n", strings.TrimSpace(in.Name))
	fmt.Fprintf(&b, "Business type: %s\n", in.BusinessType.Label())
	if area := strings.TrimSpace(in.Area); area != "" {
		fmt.Fprintf(&b, "Area served: %s\n", area)
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		fmt.Fprintf(&b, "Owner's description: %s\n", desc)
	}
	b.WriteString("\nRespond with a single JSON object and nothing else, using exactly this shape:\n")
	b.WriteString(documentSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- exactly 3 services\n")
	b.WriteString("- between 3 and 6 SEO keywords\n")
	b.WriteString("- plain text only, no HTML or markdown inside values\n")
	b.WriteString("- keep the hero title under 60 characters\n")
	return b.String()
}
