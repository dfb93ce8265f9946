package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/enrollstat/engine"
)

// ============================================================================
// OUTPUT WRITERS: json, pretty, yaml, csv and terminal tables
// ============================================================================

// Output formats accepted by WriteResult.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatPretty = "pretty"
	FormatCSV    = "csv"
	FormatYAML   = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatJSON, FormatPretty, FormatCSV, FormatYAML}

// ValidFormat reports whether f is a supported output format.
func ValidFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// WriteJSON marshals v as compact or indented JSON.
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(v), "failed to marshal output")
}

// WriteYAML marshals v as YAML. Values go through JSON first so field
// names follow the json tags.
func WriteYAML(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return errors.Wrap(err, "failed to convert output")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return errors.Wrap(err, "failed to write YAML")
	}
	return errors.Wrap(enc.Close(), "failed to write YAML")
}

// WriteTable renders TableData as an aligned terminal table with a
// colored title line.
func WriteTable(w io.Writer, table *engine.TableData) error {
	if table == nil || len(table.Columns) == 0 {
		_, err := fmt.Fprintln(w, "No data.")
		return err
	}

	if table.Title != "" {
		color.New(color.FgCyan, color.Bold).Fprintln(w, table.Title)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(table.Headers())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	aligns := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		switch c.Align {
		case "right":
			aligns[i] = tablewriter.ALIGN_RIGHT
		case "center":
			aligns[i] = tablewriter.ALIGN_CENTER
		default:
			aligns[i] = tablewriter.ALIGN_LEFT
		}
	}
	tw.SetColumnAlignment(aligns)

	for _, row := range table.Rows {
		tw.Append(row)
	}

	if table.Summary != nil {
		footer := make([]string, len(table.Columns))
		footer[0] = table.Summary.Label
		for i, c := range table.Columns {
			if i > 0 {
				footer[i] = table.Summary.Values[c.Key]
			}
		}
		tw.SetFooter(footer)
	}

	tw.Render()
	return nil
}

// WriteResult writes a view result in the requested format.
func WriteResult(w io.Writer, result *engine.Result, format string) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, result)
	case FormatJSON:
		return WriteJSON(w, result, false)
	case FormatPretty:
		return WriteJSON(w, result, true)
	case FormatYAML:
		return WriteYAML(w, result)
	case FormatTable, "":
		if result == nil {
			return WriteTable(w, nil)
		}
		if err := WriteTable(w, result.Table); err != nil {
			return err
		}
		if len(result.Excluded) > 0 {
			color.New(color.FgYellow).Fprintf(w, "⚠️ Excluded (all zero): %s\n", strings.Join(result.Excluded, ", "))
		}
		return nil
	default:
		return errors.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
