package reader

import (
	"context"
	"strings"

	"github.com/gen2brain/go-fitz"
)

type mupdfSource struct{}

func (mupdfSource) read(ctx context.Context, path string, maxPages int) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, err
	}
	defer doc.Close()

	n := min(doc.NumPage(), maxPages)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), n, nil
}
