package lib

import (
	"context"
	"log"
	"os"
	"path"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var innerApp *firebase.App
var innerMessaging *messaging.Client

func getOpts() *option.ClientOption {
	secretsPath := os.Getenv("SECRETS_DIR")
	opt := option.WithCredentialsFile(path.Join(secretsPath, "admin-sdk-credentials.json"))
	return &opt
}

func GetFirebaseMessaging() (*messaging.Client, error) {
	if innerMessaging != nil {
		return innerMessaging, nil
	}
	opt := getOpts()
	if innerApp == nil {
		app, err := firebase.NewApp(context.Background(), nil, *opt)
		if err != nil {
			log.Printf("error initializing app: %v\n", err.Error())
			return nil, err
		}
		innerApp = app
	}

	msg, err := innerApp.Messaging(context.Background())
	if err != nil {
		log.Printf("error initializing Firebase Messaging: %v\n", err.Error())
		return nil, err
	}
	innerMessaging = msg

	return msg, nil
}

// SendPushNotification delivers a push message to a device token. Delivery is
// best-effort; callers must never block settlement on its outcome.
func SendPushNotification(ctx context.Context, token string, title string, body string, data map[string]string) {
	fcm, err := GetFirebaseMessaging()
	if err != nil {
		log.Printf("[fcm] messaging unavailable: %s\n", err.Error())
		return
	}
	_, err = fcm.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		log.Printf("[fcm] Error sending notification: %s\n", err.Error())
	}
}
