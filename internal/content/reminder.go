package content

import (
	"bytes"
	"fmt"
	html "html/template"
	text "text/template"
)

var reminderEmailTmpl = html.Must(html.New("reminder_email").Parse(`<p>Hi {{.Name}},</p>
<p>This is a friendly reminder of your upcoming appointment.</p>
<ul>
  <li><strong>Service:</strong> {{.ServiceName}}</li>
  <li><strong>Date:</strong> {{.Date}}</li>
  <li><strong>Time:</strong> {{.Time}}</li>
</ul>
<p>We look forward to seeing you!</p>`))

var reminderSMSTmpl = text.Must(text.New("reminder_sms").Parse(
	`Hi {{.Name}}, reminder: your appointment is on {{.Date}} at {{.Time}}. See you soon!`))

type reminderData struct {
	Name        string
	ServiceName string
	Date        string
	Time        string
}

// RenderReminderEmail renders the reminder email subject and HTML body.
func RenderReminderEmail(name, serviceName, date, timeStr string) (subject, body string, err error) {
	var buf bytes.Buffer
	data := reminderData{Name: name, ServiceName: serviceName, Date: date, Time: timeStr}
	if err := reminderEmailTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render reminder email: %w", err)
	}
	subject = fmt.Sprintf("Appointment reminder - %s at %s", date, timeStr)
	return subject, buf.String(), nil
}

// RenderReminderSMS renders the short reminder text body.
func RenderReminderSMS(name, date, timeStr string) (string, error) {
	var buf bytes.Buffer
	data := reminderData{Name: name, Date: date, Time: timeStr}
	if err := reminderSMSTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render reminder sms: %w", err)
	}
	return buf.String(), nil
}
