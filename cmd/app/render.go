package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/starford/fubuki/internal"
	"github.com/starford/fubuki/internal/store"
)

// useTable reports whether output goes to a terminal and JSON was not asked for.
func useTable(file *os.File, forceJSON bool) bool {
	if forceJSON || file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderDetection(d internal.Detection) string {
	if !d.Detected {
		return fmt.Sprintf("Nothing recognized in %d windows\n", d.Windows)
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRow(table.Row{"Title", d.Media.Title})
	tw.AppendRow(table.Row{"Category", d.Media.Category})
	tw.AppendRow(table.Row{"Progress", d.Description})
	return tw.Render() + "\n"
}

func renderHistory(records []store.UpdateRecord) string {
	if len(records) == 0 {
		return "No updates recorded\n"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Time", "Title", "Progress", "Status", "Outcome"})
	for _, r := range records {
		outcome := string(r.Outcome)
		if r.Error != "" {
			outcome += ": " + r.Error
		}
		tw.AppendRow(table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Title,
			progressCell(r),
			string(r.Status),
			outcome,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render() + "\n"
}

func progressCell(r store.UpdateRecord) string {
	out := "-"
	if r.Progress != nil {
		out = strconv.Itoa(*r.Progress)
	}
	if r.ProgressVolumes != nil {
		out += " (vol. " + strconv.Itoa(*r.ProgressVolumes) + ")"
	}
	return out
}
