package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDigest(t *testing.T) {
	msg := FormatDigest(Digest{
		Title: "Annual Reports Summary",
		Noun:  "reports",
		Label: "Total Reports",
		Date:  time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		Total: 3,
		Lines: []string{"<b>A</b>", "<b>B</b>"},
	})

	assert.Equal(t, "📊 <b>Annual Reports Summary</b>\n"+
		"📅 Date: 29-02-2024\n"+
		"🔢 Total Reports: 3\n\n"+
		"1. <b>A</b>\n"+
		"2. <b>B</b>\n"+
		"\n... and 1 more reports", msg)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "M&amp;M &lt;Fin&gt;", Escape("M&M <Fin>"))
	assert.Equal(t, "N/A", Escape("N/A"))
}
