package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable output (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON:
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|table|yaml)")
	}
}

// IsStructured reports whether the format is machine-readable structured output.
func IsStructured(format Format) bool {
	switch format {
	case FormatJSON, FormatNDJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// TextWriter is implemented by values with their own human-readable form.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Tabler is implemented by values that can lay themselves out as a table.
type Tabler interface {
	Table() Table
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format. Structured formats see the
// value's JSON form, so custom MarshalJSON methods decide the shape that
// --query and the result flags operate on.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	switch p.format {
	case FormatText:
		if tw, ok := data.(TextWriter); ok {
			return tw.WriteText(p.w)
		}
	case FormatTable:
		switch t := data.(type) {
		case Table:
			return p.printTable(t)
		case Tabler:
			return p.printTable(t.Table())
		}
	}

	generic, err := Normalize(data)
	if err != nil {
		return err
	}
	generic = ApplyAgentOptions(ctx, generic)

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, generic)
	case FormatNDJSON:
		return p.printNDJSON(ctx, generic)
	case FormatYAML:
		return p.printYAML(generic)
	case FormatTable:
		table, err := tableFromGeneric(generic)
		if err != nil {
			return err
		}
		return p.printTable(table)
	case FormatText:
		return p.printText(generic)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

// Normalize converts data to the generic JSON value tree (maps, slices,
// float64, string, bool, nil).
func Normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return generic, nil
}

// runQuery runs a jq expression over data and encodes each result.
func runQuery(query string, data interface{}, enc *json.Encoder) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	iter := code.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query error: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

// printJSON outputs data as pretty-printed JSON.
// If a jq query is present in the context, it filters the output.
func (p *Printer) printJSON(ctx context.Context, data interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)

	if query := SettingsFromContext(ctx).Query; query != "" {
		return runQuery(query, data, enc)
	}

	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printNDJSON writes one compact line per top-level element.
func (p *Printer) printNDJSON(ctx context.Context, data interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)

	if query := SettingsFromContext(ctx).Query; query != "" {
		return runQuery(query, data, enc)
	}

	if items, ok := data.([]interface{}); ok {
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}

	return enc.Encode(data)
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText writes maps as sorted key: value lines and lists one item per line.
func (p *Printer) printText(data interface{}) error {
	switch v := data.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(p.w, "%s: %s\n", k, textValue(v[k])); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for _, item := range v {
			if _, err := fmt.Fprintln(p.w, textValue(item)); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, textValue(v))
		return err
	}
}

func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// tableFromGeneric lays out a list of objects using the union of their keys.
func tableFromGeneric(data interface{}) (Table, error) {
	items, ok := data.([]interface{})
	if !ok {
		if m, isMap := data.(map[string]interface{}); isMap {
			items = []interface{}{m}
		} else {
			return Table{}, fmt.Errorf("table format requires a list of items")
		}
	}
	if len(items) == 0 {
		return Table{}, nil
	}

	seen := map[string]bool{}
	var headers []string
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for k := range m {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	if len(headers) == 0 {
		table := Table{Headers: []string{"value"}}
		for _, item := range items {
			table.Rows = append(table.Rows, []string{textValue(item)})
		}
		return table, nil
	}

	table := Table{Headers: headers}
	for _, item := range items {
		m, _ := item.(map[string]interface{})
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = textValue(m[h])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func (p *Printer) printTable(table Table) error {
	if len(table.Headers) == 0 && len(table.Rows) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	if len(table.Headers) > 0 {
		fmt.Fprintln(w, strings.Join(table.Headers, "\t"))
	}
	for _, row := range table.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}
