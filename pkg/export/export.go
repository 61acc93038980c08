// Package export renders event store sequences for audit consumption.
// Export is read-only by construction: renderers receive snapshot slices
// and never touch the store. An empty store renders to an empty result,
// never an error.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects an export rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format query value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("export: unsupported format %q", s)
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Filename returns the attachment filename for the format.
func (f Format) Filename(prefix string, at time.Time) string {
	ext := string(f)
	if f == FormatPDF {
		ext = "txt"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, at.UTC().Format("20060102T150405Z"), ext)
}

// JSON renders records as indented JSON. A nil or empty slice renders as [].
func JSON(records any) ([]byte, error) {
	raws, err := toRawRecords(records)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return []byte("[]"), nil
	}
	return json.MarshalIndent(raws, "", "  ")
}

// CSV renders records as a table: the header row is the keys of the first
// record in declaration order, and every cell is the JSON encoding of its
// value. Nested objects survive losslessly as text, at the cost of
// re-parsing on import; exports are for human and audit consumption, not
// round-trips. Zero records render as the empty string.
func CSV(records any) (string, error) {
	raws, err := toRawRecords(records)
	if err != nil {
		return "", err
	}
	if len(raws) == 0 {
		return "", nil
	}

	header, err := keysInOrder(raws[0])
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, raw := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return "", fmt.Errorf("export: record is not an object: %w", err)
		}
		row := make([]string, len(header))
		for i, key := range header {
			if v, ok := fields[key]; ok {
				row[i] = string(v)
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// PDFText renders a plain-text report suitable for printing. Zero records
// render as the empty string.
func PDFText(title string, records any) (string, error) {
	raws, err := toRawRecords(records)
	if err != nil {
		return "", err
	}
	if len(raws) == 0 {
		return "", nil
	}

	var b strings.Builder
	rule := strings.Repeat("=", len(title))
	fmt.Fprintf(&b, "%s\n%s\n\n", title, rule)
	for i, raw := range raws {
		fmt.Fprintf(&b, "Record %d\n--------\n", i+1)
		pretty, err := json.MarshalIndent(json.RawMessage(raw), "", "  ")
		if err != nil {
			return "", err
		}
		b.Write(pretty)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// Render dispatches to the renderer for the format.
func Render(f Format, title string, records any) ([]byte, error) {
	switch f {
	case FormatCSV:
		s, err := CSV(records)
		return []byte(s), err
	case FormatPDF:
		s, err := PDFText(title, records)
		return []byte(s), err
	default:
		return JSON(records)
	}
}

// toRawRecords normalizes any slice of records into raw JSON objects.
func toRawRecords(records any) ([]json.RawMessage, error) {
	if records == nil {
		return nil, nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("export: records are not serializable: %w", err)
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("export: records are not a sequence: %w", err)
	}
	return raws, nil
}

// keysInOrder extracts the top-level object keys of a JSON document in
// document order, which for marshalled structs is field declaration order.
func keysInOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("export: record is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("export: unexpected token %v in record", tok)
		}
		keys = append(keys, key)
		// Consume the value wholesale so nested keys are not collected.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
