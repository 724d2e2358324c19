package live

import (
	"context"
	"encoding/json"
	"fmt"
)

// Resolver compiles and runs a stored pattern by ID against a subject,
// returning one JSON-encodable solution per match.
type Resolver func(ctx context.Context, patternID string, subject json.RawMessage) ([]map[string]interface{}, error)

// NewWatchHub builds a Hub whose clients are bound to a single stored
// pattern for the lifetime of the connection: every "subject" message they
// send is matched against that pattern via resolve, and the resulting
// solutions are pushed back as a "solutions" message.
func NewWatchHub(ctx context.Context, resolve Resolver) *Hub {
	hub := NewHub(ctx)
	hub.RegisterHandler("ping", PingHandler)
	hub.RegisterHandler("status", StatusHandler)
	hub.RegisterHandler("subject", subjectHandler(resolve))
	return hub
}

// BindPattern marks a newly upgraded client as watching patternID, so a
// later Broadcast to that pattern's room reaches it.
func BindPattern(client *Client, patternID string) {
	client.SetMetadata("pattern_id", patternID)
	client.JoinRoom(patternID)
}

func subjectHandler(resolve Resolver) MessageHandler {
	return func(ctx context.Context, client *Client, message *Message) error {
		patternID, ok := client.GetMetadata("pattern_id")
		if !ok {
			return fmt.Errorf("client is not bound to a pattern")
		}

		var req struct {
			Subject json.RawMessage `json:"subject"`
		}
		if err := json.Unmarshal(message.Data, &req); err != nil {
			return fmt.Errorf("invalid subject message: %w", err)
		}

		solutions, err := resolve(ctx, patternID.(string), req.Subject)
		if err != nil {
			return client.SendJSON("error", map[string]string{"message": err.Error()})
		}

		return client.SendJSON("solutions", map[string]interface{}{
			"pattern_id": patternID,
			"solutions":  solutions,
		})
	}
}
