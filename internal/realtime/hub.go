package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/notification"
	"github.com/civicroot/platform/internal/shared/metrics"
)

// GlobalRoom is the platform-wide channel every broadcast reaches
const GlobalRoom = "global"

// Push event names
const (
	EventComplaintCreated = "complaint.created"
	EventComplaintUpdated = "complaint.updated"
	EventNotificationNew  = "notification.new"
)

// Event is the wire shape pushed to clients
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Broadcaster forwards a broadcast to other nodes. Local delivery
// happens regardless; the bridge only widens the audience.
type Broadcaster interface {
	Publish(ctx context.Context, rooms []string, event string, payload json.RawMessage)
}

// Hub is the in-memory room broadcaster. Any client may join any room
// name; membership is connection-scoped and vanishes on disconnect.
// Delivery is best-effort: a client with a full send queue loses the
// message rather than stalling the fanout.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	members map[*Client]map[string]struct{}

	bridge Broadcaster
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		members: make(map[*Client]map[string]struct{}),
		logger:  logger,
	}
}

// SetBridge attaches a cross-node broadcaster
func (h *Hub) SetBridge(b Broadcaster) {
	h.bridge = b
}

// Register adds a connected client
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.members[c] = make(map[string]struct{})
	count := len(h.members)
	h.mu.Unlock()

	metrics.RecordClientCount(count)
}

// Unregister drops a client and its room memberships
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room := range h.members[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.members, c)
	count := len(h.members)
	h.mu.Unlock()

	metrics.RecordClientCount(count)
	c.close()
}

// Join adds the client to each named room
func (h *Hub) Join(c *Client, rooms []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	membership, ok := h.members[c]
	if !ok {
		return
	}

	for _, room := range rooms {
		if room == "" {
			continue
		}
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][c] = struct{}{}
		membership[room] = struct{}{}
	}
}

// Broadcast delivers the event to every client in any of the rooms,
// once per client, and forwards it to other nodes via the bridge.
func (h *Hub) Broadcast(ctx context.Context, rooms []string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode broadcast", zap.String("event", event.Event), zap.Error(err))
		return
	}

	h.DeliverLocal(rooms, event.Event, payload)

	if h.bridge != nil {
		h.bridge.Publish(ctx, rooms, event.Event, payload)
	}
}

// DeliverLocal pushes an already-encoded event to local room members.
// Called directly by the bridge for messages from other nodes.
func (h *Hub) DeliverLocal(rooms []string, eventName string, payload []byte) {
	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for _, room := range rooms {
		for c := range h.rooms[room] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		if c.trySend(payload) {
			metrics.RecordBroadcast(eventName)
		} else {
			metrics.RecordDroppedMessage()
			h.logger.Debug("dropped message for slow client", zap.String("event", eventName))
		}
	}
}

// complaintRooms derives the fanout targets for a complaint: the
// global stream plus the society and org scoped rooms when set.
func complaintRooms(c *domain.Complaint) []string {
	rooms := []string{GlobalRoom}
	if c.SocietyID != nil {
		rooms = append(rooms, "society:"+c.SocietyID.String())
	}
	if c.OrgID != nil {
		rooms = append(rooms, "org:"+c.OrgID.String())
	}
	return rooms
}

// EmitComplaintCreated broadcasts a newly created complaint
func (h *Hub) EmitComplaintCreated(ctx context.Context, c *domain.Complaint) {
	h.Broadcast(ctx, complaintRooms(c), Event{Event: EventComplaintCreated, Data: c})
}

// EmitComplaintUpdated broadcasts a mutated complaint
func (h *Hub) EmitComplaintUpdated(ctx context.Context, c *domain.Complaint) {
	h.Broadcast(ctx, complaintRooms(c), Event{Event: EventComplaintUpdated, Data: c})
}

// EmitNotification pushes a persisted notification to its recipient's
// room, named <recipientType>:<recipientId>.
func (h *Hub) EmitNotification(ctx context.Context, n *notification.Notification) {
	room := string(n.RecipientType) + ":" + n.RecipientID.String()
	h.Broadcast(ctx, []string{room}, Event{Event: EventNotificationNew, Data: n})
}
