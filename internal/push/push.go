// Package push drives delivery of push notifications to registered
// subscriber tokens through a cloud messaging transport.
package push

import (
	"context"
	"errors"
)

// Message is the notification envelope delivered to one token.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Client is the transport capability: one call delivers one message to one
// token and returns the provider's message id.
type Client interface {
	// Ready reports whether the transport has usable credentials. Dispatch
	// fails fast when it does not, without attempting any sends.
	Ready() bool
	Send(ctx context.Context, token string, msg Message) (messageID string, err error)
}

// ErrTransportUnavailable is returned by Dispatch when the transport has no
// usable credentials. No send is attempted in that case.
var ErrTransportUnavailable = errors.New("push transport unavailable")

// DemoMessage is the fixed payload sent by the test-notification endpoint.
// clickURL lands in the data block for the service worker to open on click.
func DemoMessage(clickURL string) Message {
	return Message{
		Title: "Test Notification",
		Body:  "This is a test notification from Firebase Cloud Messaging",
		Data: map[string]string{
			"score":        "850",
			"time":         "2:45",
			"url":          clickURL,
			"click_action": clickURL,
		},
	}
}
