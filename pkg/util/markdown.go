package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

var (
	h3Pattern       = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Pattern       = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Pattern       = regexp.MustCompile(`(?m)^# (.*)$`)
	boldStarPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderscore  = regexp.MustCompile(`__([^_]+)__`)
	italicStar      = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnder     = regexp.MustCompile(`_([^_]+)_`)
	bulletPattern   = regexp.MustCompile(`(?m)^\* (.+)$`)
	numberedPattern = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	listSpanPattern = regexp.MustCompile(`(?s)<li>.*</li>`)
	emptyParagraph  = regexp.MustCompile(`<p></p>`)
	openParaList    = regexp.MustCompile(`<p>\s*<ul>`)
	closeParaList   = regexp.MustCompile(`</ul>\s*</p>`)
	inlineCode      = regexp.MustCompile("`([^`]+)`")
)

// MarkdownToHTML converts a constrained Markdown subset (headers, bold,
// italic, bullet and numbered lists, inline code, paragraph breaks) into
// HTML suitable for the chat widget. Empty input yields empty output.
func MarkdownToHTML(text string) string {
	if text == "" {
		return ""
	}

	text = h3Pattern.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Pattern.ReplaceAllString(text, "<h2>$1</h2>")
	text = h1Pattern.ReplaceAllString(text, "<h1>$1</h1>")

	text = boldStarPattern.ReplaceAllString(text, "<strong>$1</strong>")
	text = boldUnderscore.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicStar.ReplaceAllString(text, "<em>$1</em>")
	text = italicUnder.ReplaceAllString(text, "<em>$1</em>")

	text = bulletPattern.ReplaceAllString(text, "<li>$1</li>")
	if loc := listSpanPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + "<ul>" + text[loc[0]:loc[1]] + "</ul>" + text[loc[1]:]
	}
	text = numberedPattern.ReplaceAllString(text, "<li>$1</li>")

	text = strings.ReplaceAll(text, "\n\n", "</p><p>")
	text = "<p>" + text + "</p>"

	text = emptyParagraph.ReplaceAllString(text, "")
	text = openParaList.ReplaceAllString(text, "<ul>")
	text = closeParaList.ReplaceAllString(text, "</ul>")

	text = inlineCode.ReplaceAllString(text, "<code>$1</code>")
	return text
}

// FormatKnowledgeSources renders up to three articles as the trailing
// "Sources" block appended to a generated answer.
func FormatKnowledgeSources(articles []domain.KnowledgeArticle, language domain.Locale) string {
	if len(articles) == 0 {
		return ""
	}

	heading := "Sources:"
	linkText := "View full article →"
	if language == domain.LocaleDutch {
		heading = "Bronnen:"
		linkText = "Volledig artikel bekijken →"
	}

	var b strings.Builder
	b.WriteString(`<div class="knowledge-sources" style="margin-top: 20px; padding: 15px; background-color: #f5f5f5; border-left: 3px solid #0078d4;">`)
	b.WriteString(`<h4 style="margin-top: 0; color: #0078d4;">` + heading + `</h4>`)
	b.WriteString(`<ul style="list-style-type: none; padding-left: 0;">`)
	for i := 0; i < len(articles) && i < 3; i++ {
		article := articles[i]
		b.WriteString(`<li style="margin-bottom: 10px;">`)
		b.WriteString(`<strong>` + article.Title + `</strong>`)
		if article.Number != "" {
			b.WriteString(` <span style="color: #666; font-size: 0.9em;">[` + DisplayArticleNumber(article.Number) + `]</span>`)
		}
		b.WriteString(`<br>`)
		b.WriteString(`<a href="` + article.URL + `" target="_blank" style="color: #0078d4; text-decoration: none;">` + linkText + `</a>`)
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}

// DisplayArticleNumber prefixes bare article numbers with KB.
func DisplayArticleNumber(number string) string {
	if strings.HasPrefix(number, "KB") {
		return number
	}
	return "KB" + number
}

// TruncateString shortens s to at most max runes, marking the cut with an
// ellipsis. Cuts on rune boundaries so multibyte text stays valid.
func TruncateString(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// FormatFileSize renders a byte count for user-facing summaries.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes <= 0:
		return "0 B"
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1048576:
		return fmt.Sprintf("%d KB", (bytes+512)/1024)
	default:
		return fmt.Sprintf("%d MB", (bytes+524288)/1048576)
	}
}
