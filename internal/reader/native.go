package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// nativeSource reads the text layer with a pure Go parser.
type nativeSource struct{}

// The parser panics on some malformed xref tables and objects; that surfaces as an error.
func (nativeSource) read(ctx context.Context, path string, maxPages int) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	n := min(r.NumPage(), maxPages)
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue // a broken page reads as empty
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), n, nil
}
