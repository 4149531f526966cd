// Package reporting renders pipeline outputs: the processed panel as CSV
// and the fitted scaler state as JSON.
package reporting

import (
	"fmt"
	"strings"

	"crypto-feature-lab/internal/domain"
)

// dateLayout is the on-disk date format; an undefined date renders empty.
const dateLayout = "2006-01-02"

// RenderPanelCSV renders a panel as CSV: Name, Date, then every column
// in panel order. Undefined numeric values render as empty cells.
func RenderPanelCSV(p *domain.Panel) string {
	var sb strings.Builder

	cols := p.Columns()
	sb.WriteString("Name,Date")
	for _, c := range cols {
		sb.WriteString(",")
		sb.WriteString(c)
	}
	sb.WriteString("\n")

	for i := 0; i < p.Len(); i++ {
		sb.WriteString(p.Names[i])
		sb.WriteString(",")
		if !p.Dates[i].IsZero() {
			sb.WriteString(p.Dates[i].Format(dateLayout))
		}
		for _, c := range cols {
			vals, _ := p.Column(c)
			sb.WriteString(",")
			if !domain.IsUndefined(vals[i]) {
				sb.WriteString(fmt.Sprintf("%.6f", vals[i]))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
