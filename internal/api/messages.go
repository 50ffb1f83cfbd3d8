package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kudos-league/kudos-client/internal/domain"
)

// ChannelMessages fetches the full message history of a channel.
func (c *Client) ChannelMessages(ctx context.Context, channelID int64) ([]domain.Message, error) {
	var messages []domain.Message
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/channels/%d/messages", channelID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

type dmChannelsResponse struct {
	DMChannels []domain.Channel `json:"dmChannels"`
}

// DMChannels fetches the user's DM channel list.
func (c *Client) DMChannels(ctx context.Context, userID int64) ([]domain.Channel, error) {
	var resp dmChannelsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d?dmChannels=true", userID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.DMChannels, nil
}
