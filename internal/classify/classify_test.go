package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/llm"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want constants.DocType
	}{
		{"141_DSI_2019-05-01", constants.DSI},
		{"2019-05-01 - 141 - corr", constants.Correspondence},
		{"141 COR final", constants.COR},
		{"Site 141 HHERA and DSI", constants.HHERA},
		{"141-REPORT-v2", constants.Report},
		{"DSIREPORT", constants.Unknown},
		{"correction notice", constants.Unknown},
		{"", constants.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, _ := Match(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegexClassifierFallsBackToTitle(t *testing.T) {
	c := NewRegexClassifier(nil)

	dt, err := c.Classify(context.Background(), Input{Path: "/in/141_scan.pdf", Title: "Preliminary PSI findings"})
	require.NoError(t, err)
	assert.Equal(t, constants.PSI, dt)

	dt, err = c.Classify(context.Background(), Input{Path: "/in/141_NIR.pdf", Title: "Preliminary PSI findings"})
	require.NoError(t, err)
	assert.Equal(t, constants.NIR, dt, "filename beats title")

	dt, err = c.Classify(context.Background(), Input{Path: "/in/141_scan.pdf", Title: "none"})
	require.NoError(t, err)
	assert.Equal(t, constants.Unknown, dt)
}

type labelOracle struct {
	answer string
	err    error
	prompt string
}

func (o *labelOracle) QueryRecord(context.Context, string) (llm.Record, error) {
	return llm.NoneRecord(), nil
}

func (o *labelOracle) QueryField(_ context.Context, prompt string) (string, error) {
	o.prompt = prompt
	return o.answer, o.err
}

func TestOracleClassifier(t *testing.T) {
	o := &labelOracle{answer: " Letter."}
	c := New(ModeML, o, nil, nil)

	dt, err := c.Classify(context.Background(), Input{Path: "141_DSI.pdf", Text: "Dear Sir"})
	require.NoError(t, err)
	assert.Equal(t, constants.Correspondence, dt)
	assert.Contains(t, o.prompt, "CORR, REPORT, NIR")
	assert.Contains(t, o.prompt, "Dear Sir")
}

func TestOracleClassifierFallsBack(t *testing.T) {
	o := &labelOracle{answer: "Invoice"}
	c := New(ModeML, o, nil, nil)
	dt, err := c.Classify(context.Background(), Input{Path: "141_DSI.pdf"})
	require.NoError(t, err)
	assert.Equal(t, constants.DSI, dt)

	o = &labelOracle{err: errors.New("timeout")}
	c = New(ModeML, o, nil, nil)
	dt, err = c.Classify(context.Background(), Input{Path: "141_AIP.pdf"})
	require.NoError(t, err)
	assert.Equal(t, constants.AIP, dt)
}

func TestOracleClassifierSkipsUnreadable(t *testing.T) {
	o := &labelOracle{answer: "REPORT"}
	c := New(ModeML, o, nil, nil)
	dt, err := c.Classify(context.Background(), Input{Path: "141_NIR.pdf", Readable: constants.ReadableNo})
	require.NoError(t, err)
	assert.Equal(t, constants.NIR, dt)
	assert.Empty(t, o.prompt)
}

func TestNewDefaultsToRegex(t *testing.T) {
	assert.IsType(t, &RegexClassifier{}, New(ModeRegex, &labelOracle{}, nil, nil))
	assert.IsType(t, &RegexClassifier{}, New(ModeML, nil, nil, nil))
}
