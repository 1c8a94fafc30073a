package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/address"
	"github.com/joseph-ayodele/site-records/internal/classify"
	"github.com/joseph-ayodele/site-records/internal/common"
	"github.com/joseph-ayodele/site-records/internal/duplicate"
	"github.com/joseph-ayodele/site-records/internal/llm"
	"github.com/joseph-ayodele/site-records/internal/lookup"
	"github.com/joseph-ayodele/site-records/internal/metadata"
	"github.com/joseph-ayodele/site-records/internal/reader"
	"github.com/joseph-ayodele/site-records/internal/runlog"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

// fileReader treats the file bytes as the document text; names containing "broken" fail
// and names containing "corrupt" panic.
type fileReader struct{}

func (fileReader) ReadText(_ context.Context, path string) (reader.Result, error) {
	if strings.Contains(filepath.Base(path), "broken") {
		return reader.Result{}, errors.New("xref table damaged")
	}
	if strings.Contains(filepath.Base(path), "corrupt") {
		panic("unexpected keyword parsing object")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return reader.Result{}, err
	}
	return reader.Result{Text: string(b), Pages: 1}, nil
}

type countingOracle struct {
	calls int
	rec   llm.Record
}

func (o *countingOracle) QueryRecord(context.Context, string) (llm.Record, error) {
	o.calls++
	return o.rec, nil
}

func (o *countingOracle) QueryField(context.Context, string) (string, error) {
	o.calls++
	return "none", nil
}

type harness struct {
	in, out string
	oracle  *countingOracle
	log     *runlog.Log
	proc    *Processor
	state   *RunState
}

func newHarness(t *testing.T, registry map[constants.DocType]string) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{in: filepath.Join(root, "in"), out: filepath.Join(root, "out")}
	require.NoError(t, os.MkdirAll(h.in, 0o755))

	h.oracle = &countingOracle{rec: llm.Record{
		SiteID: "none", Title: "Detailed Site Investigation", Receiver: "Acme Holdings",
		Sender: "Jane Smith", Address: "none", Readable: "yes",
	}}
	log, err := runlog.Open(filepath.Join(root, "run_log.csv"), nil)
	require.NoError(t, err)
	h.log = log

	dir := lookup.NewAddressDirectory(map[string]lookup.AddressParts{
		"207": {Line1: "55 Dock Street", UrbanArea: "Nanaimo"},
	})
	h.proc = NewProcessor(h.out, Deps{
		Reader:    fileReader{},
		Extractor: metadata.NewController(metadata.Config{}, h.oracle, nil, address.NewResolver(dir, nil), nil),
		Registry:  lookup.NewSiteRegistry(registry),
		Detector:  duplicate.NewDetector(duplicate.Config{}, fileReader{}, textnorm.Normalizer{}, nil),
		Log:       log,
	}, nil)
	h.state = NewRunState()
	return h
}

func allReleasable() map[constants.DocType]string {
	m := map[constants.DocType]string{constants.Unknown: "no"}
	for _, dt := range constants.DocTypes() {
		m[dt] = "yes"
	}
	return m
}

func (h *harness) input(t *testing.T, name, text string) string {
	t.Helper()
	p := filepath.Join(h.in, name)
	require.NoError(t, os.WriteFile(p, []byte(text), 0o644))
	return p
}

var body = "Detailed Site Investigation for the former fuel depot prepared by Jane Smith for Acme Holdings. " +
	strings.Repeat("Soil and groundwater samples were collected from each monitoring well on site. ", 6)

const appendix = " Appendix A lists laboratory certificates, borehole logs, chain of custody forms, " +
	"survey coordinates, photographs, historical aerial imagery, permit records and correspondence."

func TestUnreadableScanMakesNoOracleCall(t *testing.T) {
	h := newHarness(t, allReleasable())
	path := h.input(t, "141_scan.pdf", "one two three four five six seven eight nine ten")

	out, err := h.proc.ProcessFile(context.Background(), h.state, path)
	require.NoError(t, err)

	assert.Zero(t, h.oracle.calls)
	r := out.Record
	assert.Equal(t, "none", r.Title)
	assert.Equal(t, "none", r.Sender)
	assert.Equal(t, "none", r.Receiver)
	assert.Equal(t, "no", r.Readable)
	assert.Equal(t, "141", r.SiteID)
	assert.Equal(t, "0000-00-00 - 141 - UNKNOWN.pdf", r.NewFilename)
	assert.Equal(t, filepath.Join(h.out, "141", "0000-UNKNOWN", r.NewFilename), r.OutputPath)
	assert.True(t, h.state.Session.Flags.Has("141_scan.pdf", constants.ReviewUnreadable))
	assert.FileExists(t, r.OutputPath)
}

func TestUnreadableScanSkipsOracleClassifier(t *testing.T) {
	h := newHarness(t, allReleasable())
	h.proc.deps.Classifier = classify.New(classify.ModeML, h.oracle, nil, nil)
	path := h.input(t, "141_scan.pdf", "one two three four five six seven eight nine ten")

	out, err := h.proc.ProcessFile(context.Background(), h.state, path)
	require.NoError(t, err)

	assert.Zero(t, h.oracle.calls)
	assert.Equal(t, "no", out.Record.Readable)
	assert.Equal(t, "UNKNOWN", out.Record.DocumentType)
}

func TestShorterCopyArrivingLaterIsDuplicate(t *testing.T) {
	h := newHarness(t, allReleasable())
	full := h.input(t, "141_a_2020-01-01_DSI.pdf", body+appendix)
	part := h.input(t, "141_b_2020-01-01_DSI.pdf", body)

	sum, err := NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, []string{part, full})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 1, sum.Duplicates)
	assert.Zero(t, sum.Relabeled)

	recs, err := h.log.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	a, b := recs[0], recs[1]
	assert.Equal(t, "141_a_2020-01-01_DSI.pdf", a.OriginalFilename)
	assert.Equal(t, "no", a.Duplicate)
	assert.Equal(t, "2020-01-01 - 141 - DSI.pdf", a.NewFilename)

	assert.Equal(t, string(constants.DuplicateContained), b.Duplicate)
	assert.Equal(t, "2020-01-01 - 141 - DSI-DUP.pdf", b.NewFilename)
	assert.Equal(t, a.OriginalFilename, b.DuplicateFile)
	assert.Equal(t, constants.ReleasableDuplicate, b.Releasable)
	assert.Greater(t, b.SimilarityScore, 0.75)
	assert.FileExists(t, b.OutputPath)
}

func TestLongerCopyArrivingLaterRelabelsFiledCopy(t *testing.T) {
	h := newHarness(t, allReleasable())
	part := h.input(t, "141_a_2020-01-01_DSI.pdf", body)
	full := h.input(t, "141_b_2020-01-01_DSI.pdf", body+appendix)

	sum, err := NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, []string{full, part})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Relabeled)

	recs, err := h.log.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	a, b := recs[0], recs[1]

	// the earlier, shorter copy is the one marked
	assert.Equal(t, string(constants.DuplicateRetroactive), a.Duplicate)
	assert.Equal(t, b.OriginalFilename, a.DuplicateFile)
	assert.Equal(t, constants.ReleasableDuplicate, a.Releasable)
	assert.Equal(t, "2020-01-01 - 141 - DSI-DUP.pdf", a.NewFilename)
	assert.Equal(t, filepath.Join(h.out, "141", "2020-DSI", a.NewFilename), a.OutputPath)
	assert.FileExists(t, a.OutputPath)
	assert.NoFileExists(t, filepath.Join(h.out, "141", "2020-DSI", "2020-01-01 - 141 - DSI.pdf"))

	// the later, longer copy is canonical; the freed slot is not reused
	assert.Equal(t, "no", b.Duplicate)
	assert.Equal(t, a.OriginalFilename, b.Supersedes)
	assert.Equal(t, "2020-01-01 - 141 - DSI_1.pdf", b.NewFilename)
	assert.Equal(t, "yes", b.Releasable)
}

func TestRegistryAddressAndCacheInheritance(t *testing.T) {
	h := newHarness(t, allReleasable())
	first := h.input(t, "207_2019-03-04_CORR.pdf", body)
	second := h.input(t, "207_2019-05-06_REPORT.pdf", "A different letter entirely. "+strings.Repeat("Remediation planning notes for the waterfront parcel. ", 8))

	_, err := NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, []string{second, first})
	require.NoError(t, err)

	recs, err := h.log.Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "55 Dock Street, Nanaimo", r.Address)
		assert.Equal(t, "207", r.SiteID)
	}
	assert.Equal(t, "CORR", recs[0].DocumentType)
	assert.Equal(t, "REPORT", recs[1].DocumentType)
}

func TestRunIsolatesFileFailures(t *testing.T) {
	h := newHarness(t, allReleasable())
	paths := []string{
		h.input(t, "141_broken.pdf", body),
		h.input(t, "141_ok_DSI.pdf", body),
	}
	sum, err := NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, paths)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, sum.Failures, "141_broken.pdf")
}

func TestRunSurvivesPanickingFile(t *testing.T) {
	h := newHarness(t, allReleasable())
	paths := []string{
		h.input(t, "141_a_corrupt.pdf", body),
		h.input(t, "141_b_DSI.pdf", body),
	}
	var (
		sum Summary
		err error
	)
	require.NotPanics(t, func() {
		sum, err = NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, paths)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, sum.Failures, "141_a_corrupt.pdf")

	recs, err := h.log.Records()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "141_b_DSI.pdf", recs[0].OriginalFilename)
}

func TestRunWithNativeReaderSurvivesMalformedPDF(t *testing.T) {
	h := newHarness(t, allReleasable())
	native, err := reader.New(reader.Config{}, nil)
	require.NoError(t, err)
	h.proc.deps.Reader = native

	paths := []string{
		h.input(t, "141_a_scan.pdf", malformedPDF),
		h.input(t, "141_b_scan.pdf", malformedPDF),
	}
	var sum Summary
	require.NotPanics(t, func() {
		sum, err = NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, paths)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Failed)
}

// malformedPDF has a trailer whose startxref points into the header.
const malformedPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R /Size 2 >>\nstartxref\n3\n%%EOF\n"

func TestRunAbortsOnConfigGap(t *testing.T) {
	h := newHarness(t, map[constants.DocType]string{constants.DSI: "yes"})
	paths := []string{
		h.input(t, "141_1_NIR.pdf", body),
		h.input(t, "141_2_DSI.pdf", body),
	}
	sum, err := NewRunner(h.proc, nil, nil).Run(context.Background(), h.state, paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfigGap)
	assert.Zero(t, sum.Processed)

	recs, err := h.log.Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoDirExists(t, filepath.Join(h.out, "141"))
}

func TestPrintReview(t *testing.T) {
	flags := metadata.NewReviewFlags()
	flags.Flag("141_scan.pdf", constants.ReviewUnreadable)
	flags.Flag("report.pdf", "title")
	flags.Flag("report.pdf", constants.ReviewSiteID)

	var buf bytes.Buffer
	PrintReview(&buf, Summary{Processed: 2, Failed: 1, Failures: map[string]error{"x.pdf": errors.New("boom")}}, flags)
	out := buf.String()
	assert.Contains(t, out, "141_scan.pdf: unreadable")
	assert.Contains(t, out, "report.pdf: site_id, title")
	assert.Contains(t, out, "x.pdf: boom")
}

func TestSummaryCount(t *testing.T) {
	sum := NewSummary()
	sum.Count("a.pdf", Outcome{Record: runlog.Record{Duplicate: "no"}}, nil)
	sum.Count("b.pdf", Outcome{Record: runlog.Record{Duplicate: "contained"}}, nil)
	sum.Count("c.pdf", Outcome{
		Record:    runlog.Record{Duplicate: "no"},
		Relabeled: &runlog.Record{OriginalFilename: "a.pdf"},
	}, nil)
	sum.Count("d.pdf", Outcome{}, errors.New("read failed"))

	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Duplicates)
	assert.Equal(t, 1, sum.Relabeled)
	assert.Contains(t, sum.Failures, "d.pdf")
}
