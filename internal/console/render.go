package console

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"clothbill/internal/domain"
)

// Region renderers. Markup is built with html/template so item names,
// sizes and colors coming back from the backend are escaped before they
// reach the page.

var tmplFuncs = template.FuncMap{
	"amount": formatAmount,
	"fixed2": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	"fixed0": func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) },
}

var stockListTmpl = template.Must(template.New("stock-list").Funcs(tmplFuncs).Parse(
	`{{range .}}<div class="stock-item">{{.Item}} ({{.Size}}/{{.Color}}) | {{.Qty}} pcs @ ₹{{amount .Price}} <button data-add="{{.ID}}">Add to Bill</button></div>
{{end}}`))

var billListTmpl = template.Must(template.New("bill-items").Funcs(tmplFuncs).Parse(
	`{{range $i, $line := .}}<div class="bill-item">{{$line.Item}} ({{$line.Size}}) x <input type="number" value="{{$line.QtyBilled}}" min="1" data-line="{{$i}}"> = ₹{{fixed2 $line.Subtotal}} <button data-remove="{{$i}}">Remove</button></div>
{{end}}`))

var incentivesTmpl = template.Must(template.New("incentives-list").Funcs(tmplFuncs).Parse(
	`{{range .}}<div><strong>Worker-{{.ID}}:</strong> ₹{{fixed0 .Incentive}} ({{fixed0 .Incentive}} pieces)</div>
{{end}}`))

func renderStockList(items []domain.StockItem) string {
	if len(items) == 0 {
		return `<div>No stock available. Add stock first!</div>`
	}
	return execute(stockListTmpl, items)
}

func renderBillList(lines []domain.BillLine) string {
	if len(lines) == 0 {
		return `<div>No items in bill. Add from stock above.</div>`
	}
	return execute(billListTmpl, lines)
}

func renderIncentives(workers []domain.Worker) string {
	return execute(incentivesTmpl, workers)
}

func renderLastBill(total float64, itemCount int) string {
	return fmt.Sprintf("Last Bill: ₹%s | Items: %d", formatAmount(total), itemCount)
}

// formatAmount prints a rupee amount the way the page historically showed
// it: no trailing zeros, no thousands separators.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func execute(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Template data is our own typed state; an execute failure is a bug.
		return fmt.Sprintf("<div>render error: %v</div>", template.HTMLEscapeString(err.Error()))
	}
	return buf.String()
}
