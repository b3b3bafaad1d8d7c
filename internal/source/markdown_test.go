package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", Markdown("  plain text "))
	assert.Equal(t, "", Markdown(""))
	assert.Equal(t, "**Bold** claim", Markdown("<p><strong>Bold</strong> claim</p>"))
	assert.Equal(t, "3 < 4", Markdown("3 < 4"))
}
