package pushsvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/rollcall/core"
)

type fcmService struct {
	client *messaging.Client
}

var _ core.PushService = (*fcmService)(nil)

// NewFirebaseApp initializes the firebase app shared by the push service and the firestore store.
func NewFirebaseApp(ctx context.Context, conf *core.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	return app, nil
}

// NewFCMService returns a PushService delivering through Firebase Cloud Messaging.
func NewFCMService(ctx context.Context, app *firebase.App) (core.PushService, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting messaging client")
	}
	return &fcmService{client: client}, nil
}

func (svc *fcmService) Send(ctx context.Context, msg *core.PushMessage) error {
	_, err := svc.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	return err
}
