package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-units"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	switch f {
	case formatTable, formatYAML, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, yaml or json)", f)
	}
}

// writeStructured writes v as YAML or JSON. It reports false for the table
// format, leaving rendering to the caller.
func writeStructured(w io.Writer, format string, v map[string]any) (bool, error) {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case formatJSON:
		s, err := structpb.NewStruct(v)
		if err != nil {
			return true, fmt.Errorf("encode output: %w", err)
		}
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return true, err
	}
	return false, nil
}

// table prints aligned columns. widths holds the width of every column but
// the last.
type table struct {
	w      io.Writer
	widths []int
	rule   int
}

func newTable(w io.Writer, widths ...int) *table {
	rule := 0
	for _, n := range widths {
		rule += n + 1
	}
	return &table{w: w, widths: widths, rule: rule + 24}
}

func (t *table) row(cols ...string) {
	var b strings.Builder
	for i, c := range cols {
		if i < len(t.widths) {
			fmt.Fprintf(&b, "%-*s ", t.widths[i], truncate(c, t.widths[i]))
		} else {
			b.WriteString(c)
		}
	}
	fmt.Fprintln(t.w, strings.TrimRight(b.String(), " "))
}

func (t *table) header(cols ...string) {
	t.row(cols...)
	fmt.Fprintln(t.w, strings.Repeat("-", t.rule))
}

// fields prints one "key: value" line per pair, keys padded to width.
func fields(w io.Writer, width int, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(w, "%-*s %s\n", width, kv[i]+":", kv[i+1])
	}
}

// truncate shortens long cells for table view.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func humanBytes(n uint32) string {
	return units.HumanSize(float64(n))
}

func humanRate(bytesPerSecond int64) string {
	return units.HumanSize(float64(bytesPerSecond)) + "/s"
}

func humanBits(bps uint32) string {
	return units.CustomSize("%.4g%s", float64(bps), 1000.0, []string{"", "k", "M", "G", "T"}) + "bps"
}

func humanDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
