package skillswap

import (
	"context"

	"github.com/skillswap/skillswap-sdk-go/skillswap/rest"
)

// NewRESTHistory adapts the REST client to the engine's HistoryFetcher.
func NewRESTHistory(c *rest.Client) HistoryFetcher {
	return restHistory{c: c}
}

type restHistory struct {
	c *rest.Client
}

func (r restHistory) MessageHistory(ctx context.Context, conversationID string) ([]Message, error) {
	resp, err := r.c.GetMessages(ctx, conversationID, 1)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, Message{
			ID:        m.ID,
			MatchID:   m.MatchID,
			Sender:    User{ID: m.Sender.ID, Name: m.Sender.Name},
			Content:   m.Content,
			Type:      m.Type,
			CreatedAt: m.CreatedAt,
			Status:    StatusConfirmed,
		})
	}
	return out, nil
}
