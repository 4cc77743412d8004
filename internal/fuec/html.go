package fuec

import (
	"html/template"
	"io"
)

var previewTmpl = template.Must(template.New("fuec").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;max-width:760px;margin:24px auto}
table{width:100%;border-collapse:collapse;margin-bottom:14px}
th{background:#e1e8f0;text-align:left}
td,th{border:1px solid #999;padding:4px 8px}
td.l{width:35%;font-weight:bold}
</style></head>
<body>
<h2 style="text-align:center">{{.Title}}</h2>
<p style="text-align:center">{{.Company}} &nbsp; No. {{.Number}}</p>
{{range .Sections}}<table>
<tr><th colspan="2">{{.Title}}</th></tr>
{{range .Fields}}<tr><td class="l">{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{end}}<p style="text-align:right"><em>{{.Footer}}</em></p>
</body></html>
`))

// WriteHTML renders the manifest as a standalone HTML page.
func WriteHTML(w io.Writer, doc Document) error {
	return previewTmpl.Execute(w, doc)
}
