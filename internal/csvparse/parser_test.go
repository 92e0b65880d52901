package csvparse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	content := "\ufeffSKU,Name, Qty \nTS-S,Tee Small,5\r\nTS-M,\"Tee, Medium\",3\n"

	rows := Parse(content, Options{})
	require.Len(t, rows, 2)

	assert.Equal(t, "TS-S", rows[0].Get("SKU"))
	assert.Equal(t, "5", rows[0].Get("Qty"), "header is trimmed and BOM stripped")
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Tee, Medium", rows[1].Get("Name"))
	assert.Equal(t, "3", rows[1].Get("Qty"), "CRLF line ending is not part of the value")
	assert.Equal(t, 3, rows[1].Line)
}

func TestParse_SkipsBlankLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    Options
		want    int
	}{
		{"empty input", "", Options{}, 0},
		{"header only", "a,b,c", Options{}, 0},
		{"blank lines skipped", "a,b\n\n   \n1,2\n", Options{}, 1},
		{"single empty field skipped", "a\n\"\"\n1\n", Options{}, 1},
		{"kept blank line still skipped as one empty field", "a,b\n\n1,2", Options{KeepEmptyLines: true}, 1},
		{"comma-only line kept", "a,b\n,\n", Options{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Parse(tt.content, tt.opts), tt.want)
		})
	}
}

func TestParse_Quoting(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"escaped quote", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"delimiter inside quotes", `"a,b",c`, []string{"a,b", "c"}},
		{"quote mid field toggles", `ab"c,d"e,f`, []string{"abc,de", "f"}},
		{"unterminated quote flushes last field", `"open,field`, []string{"open,field"}},
		{"trailing delimiter", `a,`, []string{"a", ""}},
		{"empty quoted field", `"",x`, []string{"", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLine(tt.line, ',', true))
		})
	}
}

func TestParse_MissingAndExtraColumns(t *testing.T) {
	rows := Parse("a,b,c\n1\n1,2,3,4\n", Options{})
	require.Len(t, rows, 2)

	assert.Equal(t, "", rows[0].Get("b"))
	assert.Equal(t, "", rows[0].Get("c"))
	assert.Equal(t, "", rows[0].Get("unknown"))
	assert.Len(t, rows[1].Fields, 3)
}

func TestParse_Options(t *testing.T) {
	rows := Parse("a;b\n x ; y \n", Options{Delimiter: ';', KeepWhitespace: true})
	require.Len(t, rows, 1)
	assert.Equal(t, " x ", rows[0].Get("a"))
	assert.Equal(t, " y ", rows[0].Get("b"))
}

func TestParse_RoundTrip(t *testing.T) {
	records := [][]string{
		{"sku", "title", "note"},
		{"TS-S", "Tee, Small", `He said "ok"`},
		{"TS-M", `"quoted"`, "plain"},
		{"HAT", "a,b,,c", `""`},
	}
	for i := 0; i < 20; i++ {
		records = append(records, []string{
			fmt.Sprintf("SKU-%d", i),
			fmt.Sprintf("Item %d, size %d", i, i%4),
			fmt.Sprintf(`%d"%d`, i, i*2),
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(records))

	rows := Parse(buf.String(), Options{})
	require.Len(t, rows, len(records)-1)
	for i, row := range rows {
		want := records[i+1]
		assert.Equal(t, want[0], row.Get("sku"))
		assert.Equal(t, want[1], row.Get("title"))
		assert.Equal(t, want[2], row.Get("note"))
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{"Order #", "SKU"}, Header("\ufeffOrder # , SKU\r\n1,A", Options{}))
	assert.Equal(t, []string{""}, Header("", Options{}))
}
