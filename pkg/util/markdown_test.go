package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

func TestMarkdownToHTMLBold(t *testing.T) {
	html := MarkdownToHTML("restart the **router** first")
	assert.Contains(t, html, "<strong>router</strong>")
	assert.Contains(t, html, "<p>")
}

func TestMarkdownToHTMLHeadings(t *testing.T) {
	html := MarkdownToHTML("# Title\nsome text")
	assert.Contains(t, html, "<h1>Title</h1>")

	html = MarkdownToHTML("### Small\nmore")
	assert.Contains(t, html, "<h3>Small</h3>")
}

func TestMarkdownToHTMLBulletList(t *testing.T) {
	html := MarkdownToHTML("* first\n* second")
	assert.Contains(t, html, "<ul>")
	assert.Contains(t, html, "<li>first</li>")
	assert.Contains(t, html, "<li>second</li>")
}

func TestMarkdownToHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", MarkdownToHTML(""))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 80))
	long := TruncateString("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 80)
	assert.Len(t, long, 80)
	assert.Equal(t, "...", long[77:])
}

func TestTruncateStringCutsOnRuneBoundary(t *testing.T) {
	dutch := strings.Repeat("één privé ", 10)
	cut := TruncateString(dutch, 9)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "één pr...", cut)
	assert.Equal(t, 9, utf8.RuneCountInString(cut))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatFileSize(0))
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "2 KB", FormatFileSize(2048))
	assert.Equal(t, "3 MB", FormatFileSize(3*1024*1024))
}

func TestFormatKnowledgeSourcesCapsAtThree(t *testing.T) {
	articles := []domain.KnowledgeArticle{
		{Number: "KB0001", Title: "One", URL: "https://kb/one"},
		{Number: "KB0002", Title: "Two", URL: "https://kb/two"},
		{Number: "KB0003", Title: "Three", URL: "https://kb/three"},
		{Number: "KB0004", Title: "Four", URL: "https://kb/four"},
	}

	html := FormatKnowledgeSources(articles, domain.LocaleEnglish)
	assert.Contains(t, html, "Sources:")
	assert.Contains(t, html, "[KB0001]")
	assert.Contains(t, html, "[KB0003]")
	assert.NotContains(t, html, "KB0004")
	assert.Contains(t, html, "View full article")
}

func TestFormatKnowledgeSourcesDutchHeading(t *testing.T) {
	html := FormatKnowledgeSources([]domain.KnowledgeArticle{{Number: "KB1", Title: "Wifi"}}, domain.LocaleDutch)
	assert.Contains(t, html, "Bronnen:")
}
