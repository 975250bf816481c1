package notify

import (
	"strings"
	"testing"

	"github.com/opensme/grantscout/internal/model"
)

func sampleAlert() GrantAlert {
	return GrantAlert{
		Grant: &model.Grant{
			ID:          "grant_0102030405060708",
			Name:        "Circular Economy Grant",
			Description: "Funds waste reduction projects.",
			FundingType: model.FundingGrant,
			MaxValue:    "EUR 200,000",
			Criteria: []model.Criterion{
				{Type: model.CriterionPrimaryMandatory, Description: "Registered SME"},
			},
		},
		Verticals: []string{"Manufacturing", "Recycling"},
	}
}

func TestRenderGrantAlert(t *testing.T) {
	msg, err := NewGrantAlertRenderer().Render(sampleAlert())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(msg.Subject, "Circular Economy Grant") {
		t.Errorf("Subject = %q", msg.Subject)
	}

	for _, want := range []string{"Circular Economy Grant", "EUR 200,000", "Manufacturing", "Registered SME"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML body missing %q", want)
		}
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q", want)
		}
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	alert := sampleAlert()
	alert.Grant.Description = `<script>alert("x")</script>`

	msg, err := NewGrantAlertRenderer().Render(alert)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("HTML body must escape markup from extracted text")
	}
}

func TestDisabledSenderDropsMessages(t *testing.T) {
	sender := NewEmailSender(EmailConfig{Enabled: false}, nil)
	if err := sender.Send("someone@example.org", &RenderedMessage{Subject: "x"}); err != nil {
		t.Errorf("disabled sender returned error: %v", err)
	}
}
