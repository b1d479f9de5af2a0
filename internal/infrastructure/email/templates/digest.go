package templates

import (
	"bytes"
	"html/template"
	"log"
)

// EventTypeRow is one line of the digest's event breakdown table.
type EventTypeRow struct {
	EventType string
	Count     int
}

// DigestEmailProps carries the aggregates rendered into the daily digest.
type DigestEmailProps struct {
	ProjectName   string
	PeriodLabel   string
	TotalEvents   int
	TotalSessions int
	NewLeads      int
	TopEventTypes []EventTypeRow
	DashboardURL  string
}

var digestEmailTemplate = template.Must(template.New("digestEmail").Parse(`
<h1 style="font-size: 24px; font-weight: bold; margin: 0 0 16px;">{{.ProjectName}} activity digest</h1>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0 0 16px;">Here is what happened over {{.PeriodLabel}}:</p>
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="width: 100%; margin: 0 0 24px;">
  <tr>
    <td style="padding: 8px 0; font-size: 16px;">Events captured</td>
    <td style="padding: 8px 0; font-size: 16px; font-weight: bold; text-align: right;">{{.TotalEvents}}</td>
  </tr>
  <tr>
    <td style="padding: 8px 0; font-size: 16px;">Sessions seen</td>
    <td style="padding: 8px 0; font-size: 16px; font-weight: bold; text-align: right;">{{.TotalSessions}}</td>
  </tr>
  <tr>
    <td style="padding: 8px 0; font-size: 16px;">New leads</td>
    <td style="padding: 8px 0; font-size: 16px; font-weight: bold; text-align: right;">{{.NewLeads}}</td>
  </tr>
</table>
{{if .TopEventTypes}}
<h2 style="font-size: 18px; font-weight: bold; margin: 0 0 8px;">Top event types</h2>
<table role="presentation" border="0" cellpadding="0" cellspacing="0" style="width: 100%; margin: 0 0 24px;">
  {{range .TopEventTypes}}
  <tr>
    <td style="padding: 4px 0; font-size: 14px; color: #4a4e57;">{{.EventType}}</td>
    <td style="padding: 4px 0; font-size: 14px; color: #4a4e57; text-align: right;">{{.Count}}</td>
  </tr>
  {{end}}
</table>
{{end}}
{{if .DashboardURL}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; margin: 0;">
  <a href="{{.DashboardURL}}" style="color: #0867ec; text-decoration: underline;">Open your dashboard</a> for the full picture.
</p>
{{end}}
`))

// GetDigestEmailContent renders the digest body for wrapping in the layout.
func GetDigestEmailContent(props DigestEmailProps) string {
	var buf bytes.Buffer
	if err := digestEmailTemplate.Execute(&buf, props); err != nil {
		log.Printf("ERROR: failed to render digest email content: %v", err)
		return ""
	}
	return buf.String()
}
