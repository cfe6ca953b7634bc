package service

import (
	"bytes"
	"html/template"

	orderdomain "petal-pearl/internal/features/orders/domain"
)

var templateFuncs = template.FuncMap{
	"subtotal": func(item orderdomain.LineItem) string {
		return item.Subtotal().String()
	},
}

var newOrderTemplate = template.Must(template.New("new_order").Funcs(templateFuncs).Parse(`
<div style="font-family: sans-serif; color: #333;">
	<h1>New Order Received!</h1>
	<p>A new order has been placed on Petal &amp; Pearl.</p>
	<hr />
	<h2>Order Details:</h2>
	<ul>
		<li><strong>Order ID:</strong> #{{.ID}}</li>
		<li><strong>Customer Name:</strong> {{.CustomerName}}</li>
		<li><strong>Email:</strong> {{.CustomerEmail}}</li>
		<li><strong>Phone:</strong> {{.CustomerPhone}}</li>
		<li><strong>Total Amount:</strong> ৳{{.TotalAmount.String}}</li>
	</ul>
	<h3>Items:</h3>
	<ul>{{range .Items}}<li>{{.Name}} x {{.Quantity}} - ৳{{subtotal .}}</li>{{end}}</ul>
	<p>Please log in to the admin panel to process this order.</p>
</div>
`))

var confirmationTemplate = template.Must(template.New("order_confirmed").Parse(`
<div style="font-family: sans-serif; color: #333;">
	<h1>Order Confirmed!</h1>
	<p>Hello {{.CustomerName}}, your order #{{.ID}} has been confirmed and is being processed.</p>
	<p><strong>Tracking Number:</strong> {{.TrackingNumber}}</p>
	<p>We will notify you once it has been shipped. Thank you for shopping with Petal &amp; Pearl!</p>
</div>
`))

type confirmationView struct {
	ID             int64
	CustomerName   string
	TrackingNumber string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
