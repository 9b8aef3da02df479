package services

import (
	"context"
	"fmt"
	"log"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MailDialer is satisfied by *gomail.Dialer.
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailReceiptSender emails the customer once payment is confirmed.
type MailReceiptSender struct {
	users  repositories.UserDirectory
	dialer MailDialer
	from   string
}

func NewMailReceiptSender(users repositories.UserDirectory, cfg SMTPConfig) *MailReceiptSender {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &MailReceiptSender{
		users:  users,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
	}
}

func (s *MailReceiptSender) SendReceipt(ctx context.Context, req *models.ServiceRequest) {
	customer, err := s.users.FindByID(ctx, req.CustomerID)
	if err != nil {
		log.Printf("Failed to load customer %s for receipt: %v", req.CustomerID.Hex(), err)
		return
	}
	if customer.Email == "" {
		return
	}
	if err := s.dialer.DialAndSend(buildReceipt(s.from, customer, req)); err != nil {
		log.Printf("Failed to send receipt for request %s: %v", req.ID.Hex(), err)
	}
}

func buildReceipt(from string, customer *models.User, req *models.ServiceRequest) *gomail.Message {
	name := customer.Name
	if name == "" {
		name = "customer"
	}
	body := fmt.Sprintf("Dear %s,\n\nYour %s request (%s) is complete and the payment has been confirmed by your provider.\n\nThank you for using our service.",
		name, req.Category, req.ID.Hex())

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", customer.Email)
	m.SetHeader("Subject", "Your service request is complete")
	m.SetBody("text/plain", body)
	return m
}
