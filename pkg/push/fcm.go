package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

var ErrNoTarget = errors.New("notification has neither token nor topic")

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(ctx context.Context, app *firebase.App) (*FCMProvider, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	message, err := buildMessage(request)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Send(ctx, message)
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
			Topic:   request.Topic,
		}, err
	}

	return &NotificationResponse{
		MessageID: response,
		Success:   true,
		Token:     request.Token,
		Topic:     request.Topic,
	}, nil
}

func buildMessage(request *NotificationRequest) (*messaging.Message, error) {
	message := &messaging.Message{
		Data: request.Data,
	}

	switch {
	case request.Token != "":
		message.Token = request.Token
	case request.Topic != "":
		message.Topic = request.Topic
	default:
		return nil, ErrNoTarget
	}

	if request.Title != "" || request.Body != "" {
		message.Notification = &messaging.Notification{
			Title: request.Title,
			Body:  request.Body,
		}
	}

	if request.Priority != "" {
		message.Android = &messaging.AndroidConfig{Priority: request.Priority}
	}

	return message, nil
}
