package telegram

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"quiz-bot/internal/domain"
)

var htmlPolicy = bluemonday.StrictPolicy()

// render turns out into Telegram HTML. Every piece of text is stripped of markup and escaped, so
// quiz content and player names cannot inject tags.
func render(out domain.Outbound) string {
	if out.Panel == nil {
		return clean(out.Text)
	}

	p := out.Panel
	var b strings.Builder
	b.WriteString("<b>" + clean(p.Title) + "</b>")
	if p.Description != "" {
		b.WriteString("\n" + clean(p.Description))
	}
	for _, f := range p.Fields {
		b.WriteString("\n\n<b>" + clean(f.Name) + "</b>\n" + clean(f.Value))
	}
	return b.String()
}

func clean(s string) string {
	return htmlPolicy.Sanitize(strings.ReplaceAll(s, "\x00", ""))
}
