package config

import (
	"context"
	"encoding/base64"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// InitMessaging returns an FCM client, or nil when no Firebase credentials
// are configured.
func InitMessaging(s Settings) *messaging.Client {
	var opt option.ClientOption
	switch {
	case s.FirebaseCredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(s.FirebaseCredentialsBase64)
		if err != nil {
			log.Printf("Warning: decoding FIREBASE_CREDENTIALS_BASE64: %v", err)
			return nil
		}
		log.Printf("Using Firebase credentials from base64 environment variable")
		opt = option.WithCredentialsJSON(decoded)
	case s.FirebaseCredentialsFile != "":
		log.Printf("Using Firebase credentials file: %s", s.FirebaseCredentialsFile)
		opt = option.WithCredentialsFile(s.FirebaseCredentialsFile)
	default:
		log.Println("Firebase not configured, push offers disabled")
		return nil
	}

	ctx := context.Background()
	var cfg *firebase.Config
	if s.FirebaseProjectID != "" {
		cfg = &firebase.Config{ProjectID: s.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		log.Printf("Warning: initializing firebase app: %v", err)
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("Warning: getting messaging client: %v", err)
		return nil
	}
	return client
}
