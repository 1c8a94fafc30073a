// Package evaluate scores a run log against hand-annotated gold metadata.
package evaluate

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joseph-ayodele/site-records/internal/lookup"
	"github.com/joseph-ayodele/site-records/internal/runlog"
	"github.com/joseph-ayodele/site-records/internal/similarity"
)

// Metrics is the evaluation of one run log. Every score is over the matched rows.
type Metrics struct {
	Matched  int
	GoldOnly []string
	PredOnly []string

	DuplicateF1    float64
	ReleasableF1   float64
	TitleRouge     float64
	SenderRouge    float64
	ReceiverRouge  float64
	SiteIDAccuracy float64
}

// Evaluate joins pred and gold on the original filename, trimmed.
func Evaluate(pred []runlog.Record, gold map[string]lookup.GoldRecord) Metrics {
	byName := make(map[string]lookup.GoldRecord, len(gold))
	for k, g := range gold {
		byName[strings.TrimSpace(k)] = g
	}

	var (
		m                   Metrics
		dupGold, dupPred    []bool
		relGold, relPred    []bool
		title, sender, recv float64
		siteHits            int
	)
	matched := map[string]struct{}{}
	for _, p := range pred {
		name := strings.TrimSpace(p.OriginalFilename)
		g, ok := byName[name]
		if !ok {
			m.PredOnly = append(m.PredOnly, name)
			continue
		}
		matched[name] = struct{}{}
		m.Matched++

		dupGold = append(dupGold, GoldDuplicate(g.Duplicate))
		dupPred = append(dupPred, PredictedDuplicate(p.Duplicate))
		relGold = append(relGold, yes(g.Releasable))
		relPred = append(relPred, yes(p.Releasable))

		title += similarity.Rouge1(g.Title, p.Title).F
		sender += similarity.Rouge1(g.Sender, p.Sender).F
		recv += similarity.Rouge1(g.Receiver, p.Receiver).F
		if strings.TrimSpace(g.SiteID) == strings.TrimSpace(p.SiteID) {
			siteHits++
		}
	}
	for name := range byName {
		if _, ok := matched[name]; !ok {
			m.GoldOnly = append(m.GoldOnly, name)
		}
	}
	sort.Strings(m.GoldOnly)
	sort.Strings(m.PredOnly)

	m.DuplicateF1 = F1(dupGold, dupPred)
	m.ReleasableF1 = F1(relGold, relPred)
	if m.Matched > 0 {
		n := float64(m.Matched)
		m.TitleRouge = title / n
		m.SenderRouge = sender / n
		m.ReceiverRouge = recv / n
		m.SiteIDAccuracy = float64(siteHits) / n
	}
	return m
}

// GoldDuplicate maps an annotation to the positive class.
func GoldDuplicate(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "contained", "ocr":
		return true
	}
	return false
}

// PredictedDuplicate maps a run-log duplicate status to the positive class.
func PredictedDuplicate(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "contained", "likely_duplicate_ocr":
		return true
	}
	return false
}

func yes(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "yes"
}

// F1 is the binary F-measure of pred against gold with true as the positive label.
// It is 0 when there are no true positives.
func F1(gold, pred []bool) float64 {
	var tp, fp, fn int
	for i := range gold {
		switch {
		case gold[i] && pred[i]:
			tp++
		case !gold[i] && pred[i]:
			fp++
		case gold[i] && !pred[i]:
			fn++
		}
	}
	if tp == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn)
}

// Rows is the metric table: name, value.
func (m Metrics) Rows() [][]any {
	return [][]any{
		{"matched_documents", m.Matched},
		{"duplicate_f1", m.DuplicateF1},
		{"releasable_f1", m.ReleasableF1},
		{"title_rouge1_f", m.TitleRouge},
		{"sender_rouge1_f", m.SenderRouge},
		{"receiver_rouge1_f", m.ReceiverRouge},
		{"site_id_accuracy", m.SiteIDAccuracy},
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Print writes the metric table and the unmatched filenames.
func (m Metrics) Print(w io.Writer) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Metric", "Value").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range m.Rows() {
		v := fmt.Sprint(r[1])
		if f, ok := r[1].(float64); ok {
			v = fmt.Sprintf("%.4f", f)
		}
		t.Row(r[0].(string), v)
	}
	fmt.Fprintln(w, t.Render())

	if len(m.GoldOnly) > 0 {
		fmt.Fprintf(w, "not in run log (%d): %s\n", len(m.GoldOnly), strings.Join(m.GoldOnly, ", "))
	}
	if len(m.PredOnly) > 0 {
		fmt.Fprintf(w, "not annotated (%d): %s\n", len(m.PredOnly), strings.Join(m.PredOnly, ", "))
	}
}
