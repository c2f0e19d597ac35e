package export

import (
	"bytes"
	"fmt"
	"strings"
)

// utf8BOM is prepended to Excel-flavoured CSV so spreadsheet applications
// decode non-ASCII characters correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table defines positional tabular export content. Column order follows the
// resolved field schema, so rows are slices rather than maps.
type Table struct {
	Headers []string
	Rows    [][]string
}

// CSVEncoder renders tables as delimiter-separated text. Every cell is
// wrapped in double quotes with embedded quotes doubled, which keeps values
// containing delimiters, quotes and newlines intact for standard CSV readers.
type CSVEncoder struct {
	Delimiter      string
	IncludeHeaders bool
}

// NewCSVEncoder builds an encoder with the default comma delimiter and headers on.
func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{Delimiter: ",", IncludeHeaders: true}
}

// Encode produces CSV bytes for the table.
func (e *CSVEncoder) Encode(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	delimiter := e.Delimiter
	if delimiter == "" {
		delimiter = ","
	}

	buf := &bytes.Buffer{}
	if e.IncludeHeaders {
		writeRow(buf, table.Headers, delimiter)
	}
	for _, row := range table.Rows {
		cells := row
		if len(cells) < len(table.Headers) {
			padded := make([]string, len(table.Headers))
			copy(padded, cells)
			cells = padded
		}
		writeRow(buf, cells, delimiter)
	}
	return buf.Bytes(), nil
}

// EncodeExcel produces the same CSV prefixed with a UTF-8 byte-order-mark.
func (e *CSVEncoder) EncodeExcel(table Table) ([]byte, error) {
	payload, err := e.Encode(table)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(utf8BOM)+len(payload))
	out = append(out, utf8BOM...)
	out = append(out, payload...)
	return out, nil
}

func writeRow(buf *bytes.Buffer, cells []string, delimiter string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteString(delimiter)
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
