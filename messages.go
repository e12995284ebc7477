package basecamp

import (
	"context"
	"fmt"
)

// MessagesService covers the message endpoints of a project.
//
// See https://github.com/basecamp/bcx-api/blob/master/sections/messages.md
type MessagesService struct {
	client *Client
}

// Messages returns the message operations bound to c.
func (c *Client) Messages() *MessagesService {
	return &MessagesService{client: c}
}

// Show fetches a message with its comments.
func (s *MessagesService) Show(ctx context.Context, projectID, messageID int64) (*Result, error) {
	return s.client.Get(ctx, fmt.Sprintf("projects/%d/messages/%d.json", projectID, messageID))
}

// Create posts a new message. params usually carries "subject" and "content".
func (s *MessagesService) Create(ctx context.Context, projectID int64, params Params) (*Result, error) {
	return s.client.Post(ctx, fmt.Sprintf("projects/%d/messages.json", projectID), params)
}

// Update changes a message.
func (s *MessagesService) Update(ctx context.Context, projectID, messageID int64, params Params) (*Result, error) {
	return s.client.Put(ctx, fmt.Sprintf("projects/%d/messages/%d.json", projectID, messageID), params)
}

// Remove deletes a message.
func (s *MessagesService) Remove(ctx context.Context, projectID, messageID int64) (*Result, error) {
	return s.client.Delete(ctx, fmt.Sprintf("projects/%d/messages/%d.json", projectID, messageID))
}
