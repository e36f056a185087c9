package services

import (
	"context"
	"log"

	"ghee_back_end/internal/config"
	"ghee_back_end/internal/models"
	"ghee_back_end/internal/utils"
)

// Mailer envoie les emails transactionnels des commandes.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) OrderPlaced(ctx context.Context, o *models.Order, u *models.User) error {
	email, err := utils.OrderConfirmationEmail(o, recipientName(o, u))
	if err != nil {
		return err
	}
	return m.send(ctx, o, u, email)
}

func (m *Mailer) OrderStatusChanged(ctx context.Context, o *models.Order, u *models.User) error {
	email, err := utils.OrderStatusEmail(o, recipientName(o, u))
	if err != nil {
		return err
	}
	return m.send(ctx, o, u, email)
}

func (m *Mailer) OrderCancelled(ctx context.Context, o *models.Order, u *models.User) error {
	email, err := utils.OrderCancelledEmail(o, recipientName(o, u))
	if err != nil {
		return err
	}
	return m.send(ctx, o, u, email)
}

func (m *Mailer) send(ctx context.Context, o *models.Order, u *models.User, email utils.Email) error {
	to := o.ShippingAddress.Email
	if to == "" && u != nil {
		to = u.Email
	}
	if to == "" {
		return nil
	}
	if err := utils.SendEmail(ctx, m.cfg, to, email.Subject, email.HTML); err != nil {
		return err
	}
	log.Printf("📧 Email envoyé: %s → %s", email.Subject, to)
	return nil
}

func recipientName(o *models.Order, u *models.User) string {
	if o.ShippingAddress.Name != "" {
		return o.ShippingAddress.Name
	}
	if u != nil {
		return u.Name
	}
	return "customer"
}

// LogNotifier remplace le Mailer quand SMTP n'est pas configuré.
type LogNotifier struct{}

func (LogNotifier) OrderPlaced(_ context.Context, o *models.Order, _ *models.User) error {
	log.Printf("📭 SMTP désactivé, confirmation non envoyée pour %s", o.OrderNumber)
	return nil
}

func (LogNotifier) OrderStatusChanged(_ context.Context, o *models.Order, _ *models.User) error {
	log.Printf("📭 SMTP désactivé, statut %s non notifié pour %s", o.Status, o.OrderNumber)
	return nil
}

func (LogNotifier) OrderCancelled(_ context.Context, o *models.Order, _ *models.User) error {
	log.Printf("📭 SMTP désactivé, annulation non notifiée pour %s", o.OrderNumber)
	return nil
}
