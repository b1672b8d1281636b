package notify

import (
	"fmt"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
)

// Build computes the notifications for a committed change.
//
// Any change of status or driver notifies the sender by e-mail, and by SMS when a phone is on file.
// A status change also texts the recipient. A new assignment texts the driver and sends the
// sender a separate assignment notice. A confirmation e-mails the assigned driver.
func Build(ev domain.TransitionEvent) []domain.Notification {
	p := ev.Parcel
	var out []domain.Notification
	add := func(ch domain.Channel, to, subject, body string) {
		if to == "" {
			return
		}
		out = append(out, domain.Notification{
			ID:           uuid.New(),
			Channel:      ch,
			To:           to,
			Subject:      subject,
			Body:         body,
			TrackingCode: p.TrackingCode,
		})
	}
	toSender := func(subject, body string) {
		add(domain.ChannelEmail, p.SenderEmail, subject, body)
		add(domain.ChannelSMS, p.SenderPhone, "", body)
	}

	if ev.From != p.Status {
		toSender(
			fmt.Sprintf("Parcel %s is %s", p.TrackingCode, p.Status),
			fmt.Sprintf("The status of your parcel %s changed from %s to %s.", p.TrackingCode, ev.From, p.Status),
		)
		add(domain.ChannelSMS, p.RecipientPhone, "",
			fmt.Sprintf("Parcel %s for you is now %s.", p.TrackingCode, p.Status))
	}

	if ev.Kind == domain.EventDriverAssigned && ev.Driver != nil {
		add(domain.ChannelSMS, ev.Driver.Phone, "",
			fmt.Sprintf("New parcel %s: pick up at %s, deliver to %s.", p.TrackingCode, p.Origin, p.Destination))
		toSender(
			fmt.Sprintf("Parcel %s assigned", p.TrackingCode),
			fmt.Sprintf("Your parcel %s has been assigned to %s.", p.TrackingCode, ev.Driver.Name),
		)
	}

	if p.Status == domain.StatusConfirmed && ev.From != p.Status && ev.Driver != nil {
		add(domain.ChannelEmail, ev.Driver.Email,
			fmt.Sprintf("Parcel %s confirmed", p.TrackingCode),
			fmt.Sprintf("The recipient confirmed delivery of parcel %s.", p.TrackingCode))
	}
	return out
}
