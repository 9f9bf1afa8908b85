package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompts(t *testing.T) {
	filter := BuildTitleFilterPrompt("\nJefferies maintains 'Hold' on Infosys\n")
	assert.True(t, strings.HasSuffix(filter, "so below is the content of the file you need to filter:\n\nJefferies maintains 'Hold' on Infosys"))

	assert.Contains(t, BuildTitleSummaryPrompt("Nomura upgrades ICICI Bank"), "title: Nomura upgrades ICICI Bank")

	assert.Equal(t, NewsAnalysisInstruction+"\n\n"+NoNewsFallback, BuildNewsAnalysisPrompt("  "+NoNewsFallback+"\n"))
}
