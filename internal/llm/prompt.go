package llm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Placeholders substituted into prompt templates.
const (
	DocumentTextPlaceholder = "{{DOCUMENT_TEXT}}"
	LabelsPlaceholder       = "{{LABELS}}"
)

// DefaultCharBudget caps how much document text goes into a prompt.
const DefaultCharBudget = 3000

// PromptKind names a template.
type PromptKind string

const (
	PromptMetadata PromptKind = "metadata"
	PromptSiteID   PromptKind = "site_id"
	PromptTitle    PromptKind = "title"
	PromptSender   PromptKind = "sender"
	PromptReceiver PromptKind = "receiver"
	PromptDocType  PromptKind = "doc_type"
)

var promptKinds = []PromptKind{PromptMetadata, PromptSiteID, PromptTitle, PromptSender, PromptReceiver, PromptDocType}

var defaultTemplates = map[PromptKind]string{
	PromptMetadata: `You are reading a scanned environmental record about a contaminated site.
Return ONLY a JSON object with exactly these keys: "site_id", "title", "receiver", "sender", "address", "readable".
Every value must be a string. Use "none" when a value is not present in the text.
- site_id: the 3 to 5 digit site identifier.
- title: the subject line or report title, copied from the text.
- receiver: the person or organization the document is addressed to.
- sender: the author or sending organization.
- address: the street address of the site.
- readable: "yes" if the text is legible enough to extract metadata, otherwise "no".

Document text:
{{DOCUMENT_TEXT}}`,
	PromptSiteID: `What is the site ID in this document? A site ID is a number with 3 to 5 digits.
Answer with the digits only, for example: 0141. If there is no site ID, answer UNKNOWN.

Document text:
{{DOCUMENT_TEXT}}`,
	PromptTitle: `What is the title or subject line of this document? Copy the words exactly as they appear.
Answer with the title only, or "none" if there is no title.

Document text:
{{DOCUMENT_TEXT}}`,
	PromptSender: `Who sent or authored this document? Copy the name exactly as it appears.
Answer with the name only, or "none" if no sender is shown.

Document text:
{{DOCUMENT_TEXT}}`,
	PromptReceiver: `Who is this document addressed to? Copy the name exactly as it appears.
Answer with the name only, or "none" if no receiver is shown.

Document text:
{{DOCUMENT_TEXT}}`,
	PromptDocType: `Classify this document as exactly one of: {{LABELS}}.
Answer with the label only.

Document text:
{{DOCUMENT_TEXT}}`,
}

// Prompts renders templates with document text cut to a character budget.
type Prompts struct {
	templates  map[PromptKind]string
	charBudget int
}

// NewPrompts returns the built-in templates. A non-positive budget uses DefaultCharBudget.
func NewPrompts(charBudget int) *Prompts {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	t := make(map[PromptKind]string, len(defaultTemplates))
	for k, v := range defaultTemplates {
		t[k] = v
	}
	return &Prompts{templates: t, charBudget: charBudget}
}

// LoadPrompts overlays <dir>/<kind>.txt files on the built-in templates.
// Missing files keep the default; an empty dir loads nothing.
func LoadPrompts(dir string, charBudget int) (*Prompts, error) {
	p := NewPrompts(charBudget)
	if dir == "" {
		return p, nil
	}
	for _, kind := range promptKinds {
		path := filepath.Join(dir, string(kind)+".txt")
		b, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", path, err)
		}
		tmpl := string(b)
		if !strings.Contains(tmpl, DocumentTextPlaceholder) {
			return nil, fmt.Errorf("prompt %s lacks %s", path, DocumentTextPlaceholder)
		}
		p.templates[kind] = tmpl
	}
	return p, nil
}

// Render substitutes the (trimmed, truncated) document text into the template.
func (p *Prompts) Render(kind PromptKind, text string) string {
	return p.RenderWith(kind, text, nil)
}

// RenderWith also substitutes extra placeholders.
func (p *Prompts) RenderWith(kind PromptKind, text string, extra map[string]string) string {
	tmpl := p.templates[kind]
	for k, v := range extra {
		tmpl = strings.ReplaceAll(tmpl, k, v)
	}
	return strings.ReplaceAll(tmpl, DocumentTextPlaceholder, clip(strings.TrimSpace(text), p.charBudget))
}

// FieldPrompt maps a record key to its single-field template.
func FieldPrompt(key string) (PromptKind, bool) {
	switch key {
	case KeyTitle:
		return PromptTitle, true
	case KeySender:
		return PromptSender, true
	case KeyReceiver:
		return PromptReceiver, true
	case KeySiteID:
		return PromptSiteID, true
	}
	return "", false
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
