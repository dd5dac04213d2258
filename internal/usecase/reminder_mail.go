package usecase

import (
	"bytes"
	"html/template"
)

var missingTimesheetMail = template.Must(template.New("missing").Parse(`<p>Hi {{.Name}},</p>
<p>We have not received your timesheet for the week of <strong>{{.Week}}</strong> at {{.Tenant}}.</p>
<p><a href="{{.Link}}">Submit it now</a></p>
`))

var pendingApprovalsMail = template.Must(template.New("pending").Parse(`<p>Hi {{.Name}},</p>
<p>These timesheets have been waiting for approval for more than {{.Days}} days:</p>
<table>
<tr><th>Employee</th><th>Week</th><th>Hours</th><th>Submitted</th></tr>
{{range .Lines}}<tr><td>{{.Employee}}</td><td>{{.Week}}</td><td>{{printf "%.2f" .Hours}}</td><td>{{.Submitted}}</td></tr>
{{end}}</table>
<p><a href="{{.Link}}">Review them</a></p>
`))

var overdueInvoicesMail = template.Must(template.New("overdue").Parse(`<p>The following invoices of {{.Tenant}} are now overdue:</p>
<ul>
{{range .Invoices}}<li>{{.Number}}: {{.Total.StringFixed 2}} {{.Currency}}, due {{.DueDate.Format "2006-01-02"}}</li>
{{end}}</ul>
<p><a href="{{.Link}}">Open invoices</a></p>
`))

func renderMail(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
