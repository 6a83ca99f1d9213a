// internal/workers/application/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"

	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/models"

	"github.com/osteele/liquid"
)

var operatorTemplate = models.NotificationTemplate{
	Name:    models.NotificationOperator,
	Subject: `New {{ brand }} application: {{ full_name }}`,
	Body: `A new coaching application was submitted.

Application ID:   {{ id }}
Submitted at:     {{ created_at }}

Full name:        {{ full_name }}
Email:            {{ email }}
Phone:            {{ phone | default: "-" }}
Goal:             {{ goal | option_label }}
Experience level: {{ experience_level | option_label }}
Commitment level: {{ commitment_level | option_label }}

Message:
{{ message | default: "(none)" }}

Reply to this email to contact the applicant directly.
`,
	HTMLBody: `<h2>New coaching application</h2>
<table>
<tr><td>Application ID</td><td>{{ id | escape }}</td></tr>
<tr><td>Submitted at</td><td>{{ created_at | escape }}</td></tr>
<tr><td>Full name</td><td>{{ full_name | escape }}</td></tr>
<tr><td>Email</td><td>{{ email | escape }}</td></tr>
<tr><td>Phone</td><td>{{ phone | default: "-" | escape }}</td></tr>
<tr><td>Goal</td><td>{{ goal | option_label | escape }}</td></tr>
<tr><td>Experience level</td><td>{{ experience_level | option_label | escape }}</td></tr>
<tr><td>Commitment level</td><td>{{ commitment_level | option_label | escape }}</td></tr>
</table>
<p>{{ message | default: "(none)" | escape | newline_to_br }}</p>
`,
}

var applicantTemplate = models.NotificationTemplate{
	Name:    models.NotificationApplicant,
	Subject: `Your {{ brand }} application has been received`,
	Body: `Hi {{ full_name }},

Thank you for applying to {{ brand }} coaching. Your application is being
processed and you can expect a response within 48 hours.

If you have any questions in the meantime, contact {{ support_email }}.

The {{ brand }} team
`,
	HTMLBody: `<p>Hi {{ full_name | escape }},</p>
<p>Thank you for applying to {{ brand | escape }} coaching. Your application is being processed and you can expect a response within 48 hours.</p>
<p>If you have any questions in the meantime, contact <a href="mailto:{{ support_email | escape }}">{{ support_email | escape }}</a>.</p>
<p>The {{ brand | escape }} team</p>
`,
}

// optionLabels maps form values to the wording shown on the site.
var optionLabels = map[string]string{
	models.GoalPhysiqueTransformation: "Physique Transformation",
	models.GoalStrengthPerformance:    "Strength & Performance",
	models.GoalEliteLifestyle:         "Elite Lifestyle Optimization",
	models.ExperienceBeginner:         "Beginner (0-1 Years)",
	models.ExperienceIntermediate:     "Intermediate (1-3 Years)",
	models.ExperienceAdvanced:         "Advanced (3+ Years)",
	models.CommitmentHigh:             "High (4-6 Days/Week)",
	models.CommitmentModerate:         "Moderate (3-4 Days/Week)",
}

type compiledTemplate struct {
	name     string
	subject  *liquid.Template
	body     *liquid.Template
	htmlBody *liquid.Template
}

type renderedMessage struct {
	Subject  string
	Body     string
	HTMLBody string
}

// templateSet parses the notification templates once at startup.
type templateSet struct {
	operator  *compiledTemplate
	applicant *compiledTemplate
}

func newTemplateSet() (*templateSet, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	operator, err := compile(engine, operatorTemplate)
	if err != nil {
		return nil, err
	}
	applicant, err := compile(engine, applicantTemplate)
	if err != nil {
		return nil, err
	}
	return &templateSet{operator: operator, applicant: applicant}, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ goal | option_label }}
	engine.RegisterFilter("option_label", func(value string) string {
		if label, ok := optionLabels[value]; ok {
			return label
		}
		return value
	})

	// {{ phone | default: "-" }}, also applied to empty strings
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return fallback
		}
		return value
	})
}

func compile(engine *liquid.Engine, tpl models.NotificationTemplate) (*compiledTemplate, error) {
	parse := func(part, src string) (*liquid.Template, error) {
		if src == "" {
			return nil, nil
		}
		parsed, err := engine.ParseString(src)
		if err != nil {
			return nil, fmt.Errorf("parse %s %s template: %w", tpl.Name, part, err)
		}
		return parsed, nil
	}

	subject, err := parse("subject", tpl.Subject)
	if err != nil {
		return nil, err
	}
	body, err := parse("body", tpl.Body)
	if err != nil {
		return nil, err
	}
	htmlBody, err := parse("html", tpl.HTMLBody)
	if err != nil {
		return nil, err
	}

	return &compiledTemplate{name: tpl.Name, subject: subject, body: body, htmlBody: htmlBody}, nil
}

func (c *compiledTemplate) render(bindings map[string]interface{}) (*renderedMessage, error) {
	out := &renderedMessage{}

	var err error
	if out.Subject, err = renderPart(c.subject, bindings); err != nil {
		return nil, apperrors.NewTemplateRenderFailedError(c.name, err)
	}
	if out.Body, err = renderPart(c.body, bindings); err != nil {
		return nil, apperrors.NewTemplateRenderFailedError(c.name, err)
	}
	if out.HTMLBody, err = renderPart(c.htmlBody, bindings); err != nil {
		return nil, apperrors.NewTemplateRenderFailedError(c.name, err)
	}
	out.Subject = strings.TrimSpace(out.Subject)
	return out, nil
}

func renderPart(tpl *liquid.Template, bindings map[string]interface{}) (string, error) {
	if tpl == nil {
		return "", nil
	}
	s, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return s, nil
}
