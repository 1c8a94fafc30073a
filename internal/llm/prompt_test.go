package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTruncatesToBudget(t *testing.T) {
	p := NewPrompts(10)
	out := p.Render(PromptTitle, "   0123456789ABCDEF   ")
	assert.Contains(t, out, "0123456789")
	assert.NotContains(t, out, "ABCDEF")
	assert.NotContains(t, out, DocumentTextPlaceholder)
}

func TestRenderWithLabels(t *testing.T) {
	p := NewPrompts(0)
	out := p.RenderWith(PromptDocType, "text", map[string]string{LabelsPlaceholder: "CORR, DSI"})
	assert.Contains(t, out, "CORR, DSI")
	assert.NotContains(t, out, LabelsPlaceholder)
}

func TestLoadPromptsOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "title.txt"), []byte("TITLE? {{DOCUMENT_TEXT}}"), 0o644))

	p, err := LoadPrompts(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, "TITLE? body", p.Render(PromptTitle, "body"))
	assert.True(t, strings.HasPrefix(p.Render(PromptSender, "body"), "Who sent"))
}

func TestLoadPromptsRejectsTemplateWithoutPlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.txt"), []byte("no placeholder"), 0o644))
	_, err := LoadPrompts(dir, 0)
	require.Error(t, err)
}

func TestFieldPrompt(t *testing.T) {
	k, ok := FieldPrompt(KeySender)
	assert.True(t, ok)
	assert.Equal(t, PromptSender, k)
	_, ok = FieldPrompt(KeyAddress)
	assert.False(t, ok)
}
