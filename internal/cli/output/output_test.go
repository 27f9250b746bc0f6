package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":       FormatTable,
		"table":  FormatTable,
		" JSON ": FormatJSON,
		"yaml":   FormatYAML,
		"yml":    FormatYAML,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

type attrResult struct {
	Path       string `json:"path" yaml:"path"`
	Attributes string `json:"attributes" yaml:"attributes"`
}

func (r attrResult) Headers() []string { return []string{"Path", "Attributes"} }
func (r attrResult) Rows() [][]string  { return [][]string{{r.Path, r.Attributes}} }

func TestPrinter(t *testing.T) {
	res := attrResult{Path: `\docs\report.txt`, Attributes: "HIDDEN|ARCHIVE"}

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatTable)
		require.NoError(t, p.Print(res))
		assert.Contains(t, buf.String(), "PATH")
		assert.Contains(t, buf.String(), "HIDDEN|ARCHIVE")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewPrinter(&buf, FormatJSON)
		p.Printf("suppressed\n")
		require.NoError(t, p.Print(res))
		assert.JSONEq(t, `{"path":"\\docs\\report.txt","attributes":"HIDDEN|ARCHIVE"}`, buf.String())
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML).Print(res))
		assert.Contains(t, buf.String(), "attributes: HIDDEN|ARCHIVE")
	})

	t.Run("TableFallsBackToJSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable).Print(map[string]int{"n": 1}))
		assert.JSONEq(t, `{"n":1}`, buf.String())
	})
}

func TestPrintFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintFields(&buf, []Field{
		{"Status", "STATUS_SUCCESS"},
		{"Share", "public"},
	}))
	out := buf.String()
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "STATUS_SUCCESS")
	assert.Contains(t, out, "public")
}

func TestTableData(t *testing.T) {
	td := NewTableData("Name", "Type")
	td.AddRow("public", "disk")
	td.AddRow("IPC$", "ipc")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, td))
	assert.Contains(t, buf.String(), "IPC$")
	assert.Len(t, td.Rows(), 2)
}
