package realtime

import (
	"context"

	"github.com/stanstork/console-api/internal/notification"
)

type eventEnvelope struct {
	Type  string                   `json:"type"`
	Event notification.ChangeEvent `json:"event"`
}

// HubNotifier pushes notification changes to the owner's open sockets.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(_ context.Context, evt notification.ChangeEvent) error {
	return n.hub.SendJSON(evt.UserID, eventEnvelope{Type: "notification.updated", Event: evt})
}

func (n *HubNotifier) String() string {
	return "HubNotifier"
}
