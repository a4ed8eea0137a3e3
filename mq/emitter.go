package mq

import (
	"context"
	"encoding/json"
	"log"

	"carelink/models"
	"carelink/rdx"
	"carelink/video"
)

const eventChannel = "carelink-events"

// Emit publishes a domain event to Redis. Delivery to connected
// clients is handled by the notify worker; emit failures are logged,
// never surfaced to the caller.
func Emit(ctx context.Context, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Emit] marshal: %v", err)
		return
	}
	if err := rdx.Conn.Publish(ctx, eventChannel, data).Err(); err != nil {
		log.Printf("[Emit] publish: %v", err)
	}
}

// StartNotifyWorker subscribes to the event channel and pushes each
// event to the affected user's live websocket connection. Best effort;
// offline users simply miss the push.
func StartNotifyWorker(srv *video.Server) {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, eventChannel)
	ch := sub.Channel()

	log.Println("[NotifyWorker] Listening for domain events...")

	for msg := range ch {
		var event models.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[NotifyWorker] bad event payload: %v", err)
			continue
		}
		if event.UserID == "" {
			continue
		}
		srv.NotifyUser(event.UserID, event.Name, event)
	}
}
