package services

import (
	"context"
	"fmt"
	"log"

	"firebase.google.com/go/v4/messaging"
	"github.com/HSouheill/homeservices_backend/models"
)

const fcmChannelID = "homeservices_offers"

// MessageSender is the part of the FCM client used for offers.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier sends new offers to candidate providers over Firebase Cloud
// Messaging. Providers without a registered token are skipped.
type PushNotifier struct {
	client MessageSender
}

func NewPushNotifier(client MessageSender) *PushNotifier {
	return &PushNotifier{client: client}
}

func (p *PushNotifier) NotifyOffer(ctx context.Context, req *models.ServiceRequest, providers []models.ProviderProfile) {
	for i := range providers {
		token := providers[i].FCMToken
		if token == "" {
			continue
		}
		if _, err := p.client.Send(ctx, offerMessage(token, req)); err != nil {
			log.Printf("Error sending offer for request %s to provider %s: %v", req.ID.Hex(), providers[i].ID.Hex(), err)
		}
	}
}

func offerMessage(token string, req *models.ServiceRequest) *messaging.Message {
	title := "New service request"
	body := fmt.Sprintf("A customer near you needs %s", req.Category)
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"event":     models.EventRequestNew,
			"requestId": req.ID.Hex(),
			"category":  req.Category,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: fcmChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}
}
