package notification

import (
	"context"
	"fmt"
	"html"

	"github.com/mamadbah2/stockreport/internal/domain/models"
	"github.com/mamadbah2/stockreport/pkg/clients/mailer"
	"github.com/mamadbah2/stockreport/pkg/clients/whatsapp"
)

// WhatsAppChannel delivers notifications as WhatsApp text messages.
type WhatsAppChannel struct {
	client whatsapp.Client
}

// NewWhatsAppChannel wraps a WhatsApp client.
func NewWhatsAppChannel(client whatsapp.Client) *WhatsAppChannel {
	return &WhatsAppChannel{client: client}
}

// Name implements Channel.
func (c *WhatsAppChannel) Name() string { return "whatsapp" }

// CanDeliver implements Channel.
func (c *WhatsAppChannel) CanDeliver(user models.User) bool { return user.Phone != "" }

// Deliver implements Channel.
func (c *WhatsAppChannel) Deliver(ctx context.Context, user models.User, content models.NotificationContext) error {
	body := fmt.Sprintf("%s\n%s", content.Name, content.Message)
	if content.Link != "" {
		body += "\n" + content.Link
	}
	_, err := c.client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{
		To:         user.Phone,
		Body:       body,
		PreviewURL: content.Link != "",
	})
	return err
}

// EmailChannel delivers notifications by email.
type EmailChannel struct {
	sender mailer.Sender
}

// NewEmailChannel wraps a mail sender.
func NewEmailChannel(sender mailer.Sender) *EmailChannel {
	return &EmailChannel{sender: sender}
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// CanDeliver implements Channel.
func (c *EmailChannel) CanDeliver(user models.User) bool { return user.Email != "" }

// Deliver implements Channel.
func (c *EmailChannel) Deliver(ctx context.Context, user models.User, content models.NotificationContext) error {
	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(content.Message))
	if content.Link != "" {
		link := html.EscapeString(content.Link)
		body += fmt.Sprintf(`<p><a href="%s">%s</a></p>`, link, link)
	}
	return c.sender.Send(ctx, []string{user.Email}, content.Name, body)
}
