package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/sakemate/internal/types"
)

// barWidth is the number of cells used for a 0-10 flavor attribute.
const barWidth = 10

// FlavorBar draws value (0-10) as a bar. Out-of-range values are clamped
// for display only.
func FlavorBar(value int) string {
	v := min(max(value, 0), barWidth)
	return BarFullStyle.Render(strings.Repeat("█", v)) +
		BarEmptyStyle.Render(strings.Repeat("░", barWidth-v))
}

// FlavorChart renders the five attributes of fp, one per line.
func FlavorChart(fp types.FlavorProfile) string {
	rows := []struct {
		label string
		value int
	}{
		{"sweetness", fp.Sweetness},
		{"acidity", fp.Acidity},
		{"umami", fp.Umami},
		{"richness", fp.Richness},
		{"fragrance", fp.Fragrance},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s %2d", LabelStyle.Render(fmt.Sprintf("%-9s", r.label)), FlavorBar(r.value), r.value))
	}
	return strings.Join(lines, "\n")
}

// BrandCard renders a brand with its flavor chart. owner may be empty.
func BrandCard(b types.SakeBrand, owner string) string {
	var head strings.Builder
	head.WriteString(TitleStyle.Render(b.Name))
	if owner != "" {
		head.WriteString(" " + HelpStyle.Render("("+owner+")"))
	}
	var meta []string
	if b.Brewery != "" {
		meta = append(meta, b.Brewery)
	}
	if b.Region != "" {
		meta = append(meta, b.Region)
	}
	body := []string{head.String()}
	if len(meta) > 0 {
		body = append(body, ValueStyle.Render(strings.Join(meta, " · ")))
	}
	body = append(body, FlavorChart(b.FlavorProfile), HelpStyle.Render("id "+b.ID))
	return CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

// ReportMarkdown turns a menu analysis into a markdown document.
func ReportMarkdown(r types.MenuAnalysisResult) string {
	var b strings.Builder
	b.WriteString("# Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		b.WriteString("_No sake on this menu matched your preferences._\n\n")
	}
	for i, rec := range r.Recommendations {
		fmt.Fprintf(&b, "## %d. %s (%d%%)\n\n", i+1, rec.Name, rec.MatchScore)
		if rec.Brewery != "" {
			fmt.Fprintf(&b, "*%s*\n\n", rec.Brewery)
		}
		b.WriteString(rec.Reason + "\n\n")
		fp := rec.FlavorProfile
		b.WriteString("| sweetness | acidity | umami | richness | fragrance |\n")
		b.WriteString("|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %d | %d | %d | %d | %d |\n\n", fp.Sweetness, fp.Acidity, fp.Umami, fp.Richness, fp.Fragrance)
		for _, c := range rec.Characteristics {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		if len(rec.Characteristics) > 0 {
			b.WriteString("\n")
		}
	}
	if len(r.DetectedSakes) > 0 {
		b.WriteString("## On the menu\n\n")
		b.WriteString(strings.Join(r.DetectedSakes, ", ") + "\n\n")
	}
	if r.AnalysisText != "" {
		b.WriteString("## Overview\n\n")
		b.WriteString(r.AnalysisText + "\n")
	}
	return b.String()
}

// RenderMarkdown renders md for the terminal, or returns it unchanged if
// styled rendering is off or fails.
func RenderMarkdown(md string, width int, styled bool) string {
	if !styled {
		return md
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
