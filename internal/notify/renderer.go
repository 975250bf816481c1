package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// GrantAlert is the data behind one new-grant notification.
type GrantAlert struct {
	Grant     *model.Grant
	Verticals []string
}

// GrantAlertRenderer renders new-grant alerts as HTML email with a plain
// text fallback.
type GrantAlertRenderer struct {
	tmpl *template.Template
}

// NewGrantAlertRenderer creates a renderer with the default template.
func NewGrantAlertRenderer() *GrantAlertRenderer {
	return &GrantAlertRenderer{
		tmpl: template.Must(template.New("grant-alert").Parse(grantAlertTemplate)),
	}
}

// Render produces the email for one alert.
func (r *GrantAlertRenderer) Render(alert GrantAlert) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, alert); err != nil {
		return nil, fmt.Errorf("render alert template: %w", err)
	}

	return &RenderedMessage{
		Subject: fmt.Sprintf("New funding opportunity: %s", alert.Grant.Name),
		Text:    renderPlainText(alert),
		HTML:    htmlBuf.String(),
	}, nil
}

func renderPlainText(alert GrantAlert) string {
	g := alert.Grant
	var sb strings.Builder

	sb.WriteString(g.Name + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Funding type: %s\n", g.FundingType))
	if g.MaxValue != "" {
		sb.WriteString(fmt.Sprintf("Maximum value: %s\n", g.MaxValue))
	}
	if g.MaxSubsidy != "" {
		sb.WriteString(fmt.Sprintf("Maximum subsidy: %s\n", g.MaxSubsidy))
	}
	if len(alert.Verticals) > 0 {
		sb.WriteString(fmt.Sprintf("Verticals: %s\n", strings.Join(alert.Verticals, ", ")))
	}
	sb.WriteString("\n")

	if g.Description != "" {
		sb.WriteString(g.Description + "\n\n")
	}

	for _, c := range g.Criteria {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", c.Type, c.Description))
	}
	return sb.String()
}

const grantAlertTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <title>{{.Grant.Name}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }
    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }
    .header {
      padding: 20px 24px;
      background: #1f3a5f;
      color: #ffffff;
    }
    .name { font-size: 20px; font-weight: 700; margin-bottom: 4px; }
    .type {
      display: inline-block;
      padding: 3px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #f97316;
      color: #ffffff;
      text-transform: uppercase;
    }
    .section { padding: 16px 24px; border-top: 1px solid #f3f4f6; }
    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 8px;
    }
    .vertical-tag {
      display: inline-block;
      padding: 3px 10px;
      font-size: 12px;
      background: #e0f2fe;
      color: #0369a1;
      border-radius: 4px;
      margin: 0 4px 4px 0;
    }
    .criteria { margin: 0; padding-left: 20px; font-size: 14px; }
    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="name">{{.Grant.Name}}</div>
      <span class="type">{{.Grant.FundingType}}</span>
    </div>

    <div class="section">
      <div class="section-title">Overview</div>
      <p>{{.Grant.Description}}</p>
      {{if .Grant.MaxValue}}<p><strong>Maximum value:</strong> {{.Grant.MaxValue}}</p>{{end}}
      {{if .Grant.MaxSubsidy}}<p><strong>Maximum subsidy:</strong> {{.Grant.MaxSubsidy}}</p>{{end}}
    </div>

    {{if .Verticals}}
    <div class="section">
      <div class="section-title">Target verticals</div>
      {{range .Verticals}}<span class="vertical-tag">{{.}}</span>{{end}}
    </div>
    {{end}}

    {{if .Grant.Criteria}}
    <div class="section">
      <div class="section-title">Eligibility criteria</div>
      <ul class="criteria">
        {{range .Grant.Criteria}}<li>{{.Description}}</li>{{end}}
      </ul>
    </div>
    {{end}}

    <div class="footer">Sent by GrantScout</div>
  </div>
</body>
</html>`
