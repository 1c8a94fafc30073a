package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/common"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name string
		in   AddressParts
		want string
	}{
		{
			name: "no entry line two is dropped",
			in:   AddressParts{"123 Main St", "No Entry", "Victoria", "V8V 1A1"},
			want: "123 Main St, Victoria, V8V 1A1",
		},
		{
			name: "new number keeps line two",
			in:   AddressParts{"Main St", "Unit 5", "Victoria", "No Entry"},
			want: "Main St, Unit 5, Victoria",
		},
		{
			name: "redundant lines collapse to the longer",
			in:   AddressParts{"123 Main Street", "123 Main Street North", "Victoria", ""},
			want: "123 Main Street North, Victoria",
		},
		{
			name: "distinct lines are both kept",
			in:   AddressParts{"123 Main St", "Harbour Building", "Victoria", ""},
			want: "123 Main St, Harbour Building, Victoria",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAddress(tt.in))
		})
	}
}

func TestLoadAddressDirectoryCSV(t *testing.T) {
	csv := "Site ID,Address 1,Address 2,Urban Area,Postal Code\n" +
		"141,1234 Harbour Road,No Entry,Victoria,V9A 3S1\n" +
		"141,Other Road,,Nanaimo,\n" +
		"207,,,,\n"
	d, err := LoadAddressDirectory(writeFile(t, "addresses.csv", []byte(csv)), nil)
	require.NoError(t, err)

	addr, ok := d.Address("141")
	require.True(t, ok)
	assert.Equal(t, "1234 Harbour Road, Victoria, V9A 3S1", addr)

	addr, ok = d.Address("0141")
	assert.True(t, ok)
	assert.Equal(t, "1234 Harbour Road, Victoria, V9A 3S1", addr)

	_, ok = d.Address("207")
	assert.False(t, ok, "empty row is absent")
	assert.Equal(t, 1, d.Len())
}

func TestSiteRegistryFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Document Type", "Releasable"},
		{"DSI", "Yes"},
		{"CORR", "no"},
		{"Letter", "no"},
		{"Invoice", "yes"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "registry.xlsx")
	require.NoError(t, f.SaveAs(path))

	reg, err := LoadSiteRegistry(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	v, err := reg.Releasable(constants.DSI)
	require.NoError(t, err)
	assert.Equal(t, "yes", v)

	_, err = reg.Releasable(constants.HHERA)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfigGap)
	assert.True(t, common.IsFatal(err))
}

func TestLoadGoldMetadataLatin1(t *testing.T) {
	data := []byte("Annotated set\n,\nversion 2\n" +
		"Current BC Mail title,Title/Subject,Receiver,Sender/Author,Address,Site ID,Duplicate  (Y/N),Site Registry releaseable\n" +
		"141_DSI.pdf,R\xe9sum\xe9 of Findings,Acme,Jane Smith,1234 Harbour Road,141,N,Yes\n")
	gold, err := LoadGoldMetadata(writeFile(t, "gold.csv", data), nil)
	require.NoError(t, err)

	g, ok := gold["141_DSI.pdf"]
	require.True(t, ok)
	assert.Equal(t, "Résumé of Findings", g.Title)
	assert.Equal(t, "N", g.Duplicate)
	assert.Equal(t, "Yes", g.Releasable)
	assert.Equal(t, "141", g.SiteID)
}

func TestLoadTableErrors(t *testing.T) {
	_, err := LoadTable(writeFile(t, "x.json", []byte("{}")), TableOptions{})
	assert.Error(t, err)

	_, err = LoadTable(writeFile(t, "short.csv", []byte("a,b\n")), TableOptions{HeaderRow: 3})
	assert.ErrorIs(t, err, errNoHeader)
}
