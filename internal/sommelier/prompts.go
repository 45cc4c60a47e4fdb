package sommelier

import (
	"fmt"
	"strings"

	"github.com/jeanpaul/sakemate/internal/types"
)

const systemPrompt = "You are an expert on Japanese sake (nihonshu). You answer with accurate, " +
	"concise information and always follow the requested JSON format exactly."

func brandPrompt(brandName, language string) string {
	var b strings.Builder
	b.WriteString("Provide accurate information about the following sake brand.\n\n")
	fmt.Fprintf(&b, "Brand name: %s\n\n", brandName)
	b.WriteString("Answer in the following JSON format:\n")
	b.WriteString(`{
  "identifiedName": "the exact brand name",
  "brewery": "brewery name (if known)",
  "region": "prefecture or region of origin (if known)",
  "flavorProfile": {
    "sweetness": integer 0-10,
    "acidity": integer 0-10,
    "umami": integer 0-10,
    "richness": integer 0-10,
    "fragrance": integer 0-10 (strength of aroma)
  }
}`)
	b.WriteString("\n\nIf no such brand can be identified, use the given name unchanged and " +
		"describe the flavor of a typical sake.\n")
	fmt.Fprintf(&b, "Write names and text values in %s.\n", language)
	return b.String()
}

// preferenceLines renders one "- name: attr=value, ..." line per brand.
func preferenceLines(brands []types.SakeBrand) string {
	lines := make([]string, 0, len(brands))
	for _, br := range brands {
		fp := br.FlavorProfile
		lines = append(lines, fmt.Sprintf("- %s: sweetness=%d, acidity=%d, umami=%d, richness=%d, fragrance=%d",
			br.Name, fp.Sweetness, fp.Acidity, fp.Umami, fp.Richness, fp.Fragrance))
	}
	return strings.Join(lines, "\n")
}

func menuPrompt(brands []types.SakeBrand, menuText, language string) string {
	var b strings.Builder
	b.WriteString("Analyze the sake menu in the attached document and recommend sake " +
		"that matches the user's taste.\n\n")
	b.WriteString("[Sake the user likes]\n")
	b.WriteString(preferenceLines(brands))
	b.WriteString("\n\n")
	if menuText != "" {
		b.WriteString("[Text extracted from the menu]\n")
		b.WriteString(menuText)
		b.WriteString("\n\n")
	}
	b.WriteString("[Task]\n")
	b.WriteString("1. Extract every sake brand listed on the menu.\n")
	b.WriteString("2. Analyze the flavor characteristics of each one.\n")
	b.WriteString("3. Pick the 3 that best match the user's preferences and explain why.\n\n")
	b.WriteString("Answer in the following JSON format:\n")
	b.WriteString(`{
  "detectedSakes": ["brand 1", "brand 2", ...],
  "recommendations": [
    {
      "name": "brand name",
      "brewery": "brewery name (if known)",
      "matchScore": integer 0-100 (how well it matches),
      "reason": "why it is recommended",
      "flavorProfile": {
        "sweetness": 0-10,
        "acidity": 0-10,
        "umami": 0-10,
        "richness": 0-10,
        "fragrance": 0-10
      },
      "characteristics": ["trait 1", "trait 2", "trait 3"]
    }
  ],
  "analysisText": "overall tendencies of the menu"
}`)
	fmt.Fprintf(&b, "\n\nWrite names and text values in %s.\n", language)
	return b.String()
}
