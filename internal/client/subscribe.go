package client

import (
	"context"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/errors"
)

// Subscribe connects to the service's event stream and calls fn for every
// event until ctx is cancelled or the connection drops. It returns nil when
// ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, fn func(api.Event)) error {
	// The stream is long lived, so the per-request timeout does not apply.
	hc := *c.httpClient
	hc.Timeout = 0

	conn, _, err := websocket.Dial(ctx, c.eventsURL(), &websocket.DialOptions{
		HTTPClient: &hc,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.NewNetworkError(errors.ErrCodeRequestFailed, "connect to event stream", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c.logger.Debug(ctx, "Subscribed to events", "url", c.eventsURL())

	for {
		var event api.Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return errors.NewNetworkError(errors.ErrCodeRequestFailed, "read event stream", err)
		}
		fn(event)
	}
}

func (c *Client) eventsURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + api.PathEvents
	return u.String()
}
