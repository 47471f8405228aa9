package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <h3>Your appointment is confirmed</h3>
  <p>Hello {{.PatientName}},</p>
  <div>
    <p>Your appointment for treatment {{.Treatment}}</p>
    <p>Please visit us on {{.AppointDate}} at {{.Slot}}</p>
    <p>Thanks from Doctors Portal</p>
  </div>
</body>
</html>`

var bookingConfirmationTmpl = template.Must(template.New("booking_confirmation").Parse(bookingConfirmationTemplate))

type BookingConfirmation struct {
	PatientName string
	Email       string
	Treatment   string
	AppointDate string
	Slot        string
}

func (c *MailgunClient) SendBookingConfirmation(ctx context.Context, booking BookingConfirmation) (string, error) {
	subject := fmt.Sprintf("Your appointment for %s is confirmed.", booking.Treatment)
	htmlBody, err := buildBookingConfirmationHTML(booking)
	if err != nil {
		return "", err
	}
	return c.sendHTML(ctx, booking.Email, subject, htmlBody)
}

func buildBookingConfirmationHTML(booking BookingConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := bookingConfirmationTmpl.Execute(&buf, booking); err != nil {
		return "", err
	}
	return buf.String(), nil
}
