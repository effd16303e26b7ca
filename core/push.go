package core

import "context"

type (
	PushMessage struct {
		Token string // device registration token
		Title string
		Body  string
		Data  map[string]string
	}

	// PushService is any service that can deliver a push notification to a single device.
	PushService interface {
		// Send delivers one message and reports the transport error, if any. It never retries.
		Send(ctx context.Context, msg *PushMessage) error
	}
)
