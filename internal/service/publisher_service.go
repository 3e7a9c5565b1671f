package service

import (
	"context"
	"encoding/json"
	"fmt"

	"live-chat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	PublishMessageCreated(ctx context.Context, payload *dto.PublishChatMessageCreated) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (p *publisherService) PublishMessageCreated(ctx context.Context, payload *dto.PublishChatMessageCreated) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message-created payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	return p.pubSub.Publish(p.topicName, msg)
}
