package api

import (
	"net/url"
)

// Me returns the account behind the client's token.
func (c *Client) Me() (*User, error) {
	var resp MeResponse
	if err := c.Get("/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// EventQuery selects an event gallery by binding or by event name.
type EventQuery struct {
	QRID      string
	EventName string
}

func (q EventQuery) Values() url.Values {
	v := url.Values{}
	if q.QRID != "" {
		v.Set("qr", q.QRID)
	}
	if q.EventName != "" {
		v.Set("eventName", q.EventName)
	}
	return v
}
