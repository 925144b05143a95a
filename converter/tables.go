package converter

import (
	"strings"
)

type tableRow struct {
	cells  []string
	header bool
}

// convertTable converts a table node to a GFM pipe table.
func (s *state) convertTable(node Node) error {
	var caption *Node
	var rows []tableRow

	for i, child := range node.Children {
		if err := s.enter(child, i); err != nil {
			return err
		}
		switch child.Kind {
		case KindTitle:
			caption = &node.Children[i]
		case KindTableRow:
			row, err := s.convertTableRow(child)
			if err != nil {
				s.leave()
				return err
			}
			rows = append(rows, row)
		default:
			err := s.malformed("%s inside a table, expected %s", child.Kind, KindTableRow)
			s.leave()
			return err
		}
		s.leave()
	}

	if caption != nil {
		text, err := s.inlineContent(*caption)
		if err != nil {
			return err
		}
		if text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")); text != "" {
			s.writeParagraph("**" + text + "**")
			s.w.requestBlank()
		}
	}

	if len(rows) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range rows {
		if len(row.cells) > colCount {
			colCount = len(row.cells)
		}
	}
	if colCount == 0 {
		return nil
	}

	// Only a leading header row becomes the GFM header, later ones are data.
	var headerRow []string
	dataRows := rows
	if rows[0].header {
		headerRow = rows[0].cells
		dataRows = rows[1:]
	}

	if s.stack.inTableCell() {
		s.addWarning(WarningDegradedStyle, KindTable, "nested table flattened into cell text")
	}

	s.w.writeLine(formatTableRow(headerRow, colCount))

	separator := make([]string, colCount)
	for i := range separator {
		separator[i] = "---"
	}
	s.w.writeLine(formatTableRow(separator, colCount))

	for _, row := range dataRows {
		s.w.writeLine(formatTableRow(row.cells, colCount))
	}
	return nil
}

// formatTableRow pads cells to colCount and joins them with pipes.
func formatTableRow(cells []string, colCount int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := 0; i < colCount; i++ {
		sb.WriteString(" ")
		if i < len(cells) {
			sb.WriteString(cells[i])
		}
		sb.WriteString(" |")
	}
	return sb.String()
}

func (s *state) convertTableRow(node Node) (tableRow, error) {
	row := tableRow{header: node.GetBoolAttr("header", false)}
	column := 0
	for i, cell := range node.Children {
		if err := s.enter(cell, i); err != nil {
			return tableRow{}, err
		}
		if cell.Kind != KindTableCell {
			err := s.malformed("%s inside a table-row, expected %s", cell.Kind, KindTableCell)
			s.leave()
			return tableRow{}, err
		}

		text, err := s.convertTableCell(cell, column, row.header)
		if err == nil && cell.GetIntAttr("morerows", 0) > 0 {
			s.addWarning(WarningDroppedFeature, KindTableCell, "row span dropped; cell occupies one row")
		}
		s.leave()
		if err != nil {
			return tableRow{}, err
		}
		row.cells = append(row.cells, text)
		column++

		for span := cell.GetIntAttr("morecols", 0); span > 0; span-- {
			row.cells = append(row.cells, "")
			column++
		}
	}
	return row, nil
}

// convertTableCell renders the cell content under a TableCell frame and
// flattens it into a single escaped line.
func (s *state) convertTableCell(node Node, column int, header bool) (string, error) {
	s.stack.push(Frame{Kind: FrameTableCell, Column: column, Header: header})
	defer s.stack.pop()

	content, err := s.capture(func() error {
		if len(node.Children) == 0 {
			s.writeParagraph(EscapeText(node.Text))
			return nil
		}
		return s.convertBlocks(node.Children)
	})
	if err != nil {
		return "", err
	}

	separator := "<br>"
	if s.config.TableBreak == TableBreakSpace {
		separator = " "
	}

	var parts []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return escapeTableCell(strings.Join(parts, separator), s.config.TableEscape), nil
}
