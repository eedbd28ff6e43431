package notify

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"example.com/registration/internal/domain"
)

// Subject is used for every registration notification.
const Subject = "New Hackathon Registration — Idea2Impact 2026"

var bodyTmpl = template.Must(template.New("registration").Parse(`<div style="font-family: sans-serif; line-height: 1.5;">
  <h2>New Registration Received</h2>
{{- range .Rows}}
  <p><b>{{.Label}}:</b> {{.Value}}</p>
{{- end}}
  <hr>
  <p><small>Database ID: {{.ID}}</small></p>
</div>
`))

type row struct {
	Label string
	Value string
}

// Render builds the HTML body for reg. Optional fields that were left empty
// show domain.NotSpecified; all values are HTML-escaped.
func Render(reg domain.Registration) (string, error) {
	if reg.ID == "" {
		return "", errors.New("render: registration has no id")
	}
	data := struct {
		ID   string
		Rows []row
	}{
		ID: reg.ID,
		Rows: []row{
			{"Name", reg.Name},
			{"Email", reg.Email},
			{"Phone", reg.Phone},
			{"College", reg.College},
			{"Year", reg.Year},
			{"Department", reg.Department},
			{"Team Size", reg.TeamSize},
			{"Experience", domain.OrPlaceholder(reg.Experience)},
			{"Skills", domain.OrPlaceholder(reg.Skills)},
			{"Motivation", domain.OrPlaceholder(reg.Motivation)},
		},
	}
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
