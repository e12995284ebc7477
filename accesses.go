package basecamp

import (
	"context"
	"fmt"
)

// AccessesService grants and revokes access to projects and calendars.
//
// See https://github.com/basecamp/bcx-api/blob/master/sections/accesses.md
type AccessesService struct {
	client *Client
}

// Accesses returns the access operations bound to c.
func (c *Client) Accesses() *AccessesService {
	return &AccessesService{client: c}
}

// Project lists the people with access to a project.
func (s *AccessesService) Project(ctx context.Context, projectID int64) (*Result, error) {
	return s.client.Get(ctx, fmt.Sprintf("projects/%d/accesses.json", projectID))
}

// GrantProject grants access to a project. params takes "ids" and/or
// "email_addresses".
func (s *AccessesService) GrantProject(ctx context.Context, projectID int64, params Params) (*Result, error) {
	return s.client.Post(ctx, fmt.Sprintf("projects/%d/accesses.json", projectID), params)
}

// RevokeProject removes a person from a project.
func (s *AccessesService) RevokeProject(ctx context.Context, projectID, personID int64) (*Result, error) {
	return s.client.Delete(ctx, fmt.Sprintf("projects/%d/accesses/%d.json", projectID, personID))
}

// Calendar lists the people with access to a calendar.
func (s *AccessesService) Calendar(ctx context.Context, calendarID int64) (*Result, error) {
	return s.client.Get(ctx, fmt.Sprintf("calendars/%d/accesses.json", calendarID))
}

// GrantCalendar grants access to a calendar.
func (s *AccessesService) GrantCalendar(ctx context.Context, calendarID int64, params Params) (*Result, error) {
	return s.client.Post(ctx, fmt.Sprintf("calendars/%d/accesses.json", calendarID), params)
}

// RevokeCalendar removes a person from a calendar.
func (s *AccessesService) RevokeCalendar(ctx context.Context, calendarID, personID int64) (*Result, error) {
	return s.client.Delete(ctx, fmt.Sprintf("calendars/%d/accesses/%d.json", calendarID, personID))
}
