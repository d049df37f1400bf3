package cda

import (
	"fmt"
	"strings"
)

// NarrativeStyle selects the human-readable form of a section narrative.
type NarrativeStyle string

const (
	StyleTable     NarrativeStyle = "table"
	StyleList      NarrativeStyle = "list"
	StyleParagraph NarrativeStyle = "paragraph"
)

// Row is one narrative row and its minted cross-reference identifier.
type Row struct {
	Ref   string
	Cells []string
}

// RowGroup is a run of rows sharing one organizer. The label is rendered
// only on the group's first row.
type RowGroup struct {
	Label string
	Rows  [][]string
}

// Renderer produces the narrative block for a composite builder and mints
// one cross-reference identifier per row. Identifier format is an external
// contract: "{prefix}-{index}" for flat collections and
// "{prefix}-{groupIndex}-{itemIndex}" for grouped ones, 1-based, stable
// across builds of the same logical document.
type Renderer struct {
	Style   NarrativeStyle
	Headers []string
}

// RenderFlat renders rows and returns the text node together with the rows
// carrying their identifiers, in the same order as the input.
func (r *Renderer) RenderFlat(ctx *BuildContext, prefix string, cells [][]string) (*Node, []Row, error) {
	rows := make([]Row, len(cells))
	for i, c := range cells {
		ref := fmt.Sprintf("%s-%d", prefix, i+1)
		if err := ctx.ClaimRef(ref); err != nil {
			return nil, nil, err
		}
		rows[i] = Row{Ref: ref, Cells: c}
	}
	return r.render(rows), rows, nil
}

// RenderGroups renders organizer-grouped rows. The group label occupies the
// first cell of the group's first row only; continuation rows leave it
// blank.
func (r *Renderer) RenderGroups(ctx *BuildContext, prefix string, groups []RowGroup) (*Node, [][]Row, error) {
	var flat []Row
	grouped := make([][]Row, len(groups))
	for g, group := range groups {
		grouped[g] = make([]Row, len(group.Rows))
		for i, c := range group.Rows {
			ref := fmt.Sprintf("%s-%d-%d", prefix, g+1, i+1)
			if err := ctx.ClaimRef(ref); err != nil {
				return nil, nil, err
			}
			label := ""
			if i == 0 {
				label = group.Label
			}
			row := Row{Ref: ref, Cells: append([]string{label}, c...)}
			grouped[g][i] = row
			flat = append(flat, row)
		}
	}
	return r.render(flat), grouped, nil
}

// Placeholder is the policy-defined narrative for a collection with no
// records.
func (r *Renderer) Placeholder(message string) *Node {
	if message == "" {
		message = "No data recorded"
	}
	return NewNode("text").Append(NewNode("paragraph").SetText(message))
}

func (r *Renderer) render(rows []Row) *Node {
	switch r.Style {
	case StyleList:
		return r.renderList(rows)
	case StyleParagraph:
		return r.renderParagraphs(rows)
	default:
		return r.renderTable(rows)
	}
}

func (r *Renderer) renderTable(rows []Row) *Node {
	table := NewNode("table").SetAttr("border", "1").SetAttr("width", "100%")

	if len(r.Headers) > 0 {
		tr := NewNode("tr")
		for _, h := range r.Headers {
			tr.Append(NewNode("th").SetText(h))
		}
		table.Append(NewNode("thead").Append(tr))
	}

	tbody := NewNode("tbody")
	for _, row := range rows {
		tr := NewNode("tr")
		for i, cell := range row.Cells {
			td := NewNode("td")
			if i == 0 {
				td.Append(NewNode("content").SetAttr("ID", row.Ref).SetText(cell))
			} else {
				td.SetText(cell)
			}
			tr.Append(td)
		}
		tbody.Append(tr)
	}
	table.Append(tbody)

	return NewNode("text").Append(table)
}

func (r *Renderer) renderList(rows []Row) *Node {
	list := NewNode("list").SetAttr("listType", "ordered")
	for _, row := range rows {
		item := NewNode("item").Append(
			NewNode("content").SetAttr("ID", row.Ref).SetText(strings.Join(row.Cells, ", ")),
		)
		list.Append(item)
	}
	return NewNode("text").Append(list)
}

func (r *Renderer) renderParagraphs(rows []Row) *Node {
	text := NewNode("text")
	for _, row := range rows {
		text.Append(NewNode("paragraph").Append(
			NewNode("content").SetAttr("ID", row.Ref).SetText(strings.Join(row.Cells, ", ")),
		))
	}
	return text
}
