package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the most tokens FCM accepts in one multicast call.
const fcmBatchLimit = 500

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FCMProvider struct {
	client multicastSender
	log    *zap.Logger
}

func NewFCM(ctx context.Context, credentialsFile, projectID string, log *zap.Logger) (*FCMProvider, error) {
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCMProvider{client: client, log: log.Named("push.fcm")}, nil
}

func (p *FCMProvider) SendMulticast(ctx context.Context, msg Message) (Result, error) {
	var result Result
	for _, batch := range chunk(msg.Tokens, fcmBatchLimit) {
		resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Data:   msg.Data,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
		})
		if err != nil {
			return result, err
		}
		result.SuccessCount += resp.SuccessCount
		result.FailureCount += resp.FailureCount
	}

	if result.FailureCount > 0 {
		p.log.Warn("push partially delivered",
			zap.Int("success", result.SuccessCount),
			zap.Int("failure", result.FailureCount),
		)
	}
	return result, nil
}

func chunk(tokens []string, size int) [][]string {
	var batches [][]string
	for len(tokens) > 0 {
		n := size
		if len(tokens) < n {
			n = len(tokens)
		}
		batches = append(batches, tokens[:n])
		tokens = tokens[n:]
	}
	return batches
}
