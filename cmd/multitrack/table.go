package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView collects rows for a rounded go-pretty table. Short rows are padded
// with empty cells.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
}

func newTableView(headers ...string) *tableView {
	return &tableView{
		headers: headers,
		aligns:  make([]columnAlignment, len(headers)),
	}
}

func (v *tableView) alignRight(columns ...int) *tableView {
	for _, c := range columns {
		if c >= 0 && c < len(v.aligns) {
			v.aligns[c] = alignRight
		}
	}
	return v
}

func (v *tableView) add(cells ...string) {
	v.rows = append(v.rows, cells)
}

func (v *tableView) len() int {
	return len(v.rows)
}

func (v *tableView) render() string {
	columns := len(v.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(v.row(v.headers))
	for _, cells := range v.rows {
		tw.AppendRow(v.row(cells))
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if v.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func (v *tableView) row(cells []string) table.Row {
	r := make(table.Row, len(v.headers))
	for i := range r {
		if i < len(cells) {
			r[i] = cells[i]
		} else {
			r[i] = ""
		}
	}
	return r
}
