package websocket

import (
	"encoding/json"
	"log"

	"dinehub/internal/usecase"
)

// Notifier pushes session events to the customer's live connection and to
// every connected admin. Delivery is best-effort: marshalling or send
// problems are logged and dropped, never surfaced to the engine.
type Notifier struct {
	manager *Manager
}

func NewNotifier(manager *Manager) *Notifier {
	return &Notifier{manager: manager}
}

func (n *Notifier) SessionAppended(event usecase.AppendEvent) {
	n.push(event.CustomerID, "support_message", event)
}

func (n *Notifier) SessionRead(event usecase.ReadEvent) {
	n.push(event.CustomerID, "support_read", event)
}

func (n *Notifier) SessionResolved(event usecase.ResolveEvent) {
	n.push(event.CustomerID, "support_resolved", event)
}

func (n *Notifier) push(customerID, eventType string, event interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  eventType,
		"event": event,
	})
	if err != nil {
		log.Printf("Notifier: failed to marshal %s event: %v", eventType, err)
		return
	}

	n.manager.SendToUser(customerID, payload)
	n.manager.SendToAdmins(payload)
}
