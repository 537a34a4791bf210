package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	channelPrefix  = "climblog:"
	channelSuffix  = ":logs"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Event tells an open dashboard that one of the user's logs changed.
type Event struct {
	Type     string `json:"type"`
	ReviewID string `json:"review_id"`
}

const (
	LogCreated = "log.created"
	LogUpdated = "log.updated"
	LogDeleted = "log.deleted"
	LogPhoto   = "log.photo"
)

// Hub fans log events out to a user's open websocket connections. With Redis
// configured, events travel through pub/sub so every process sees them.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
	}
	if redisClient == nil {
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	readyCtx, readyCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readyCancel()
	if _, err := pubsub.Receive(readyCtx); err != nil {
		log.Warn().Err(err).Msg("stream: redis subscribe failed, delivering locally")
		_ = pubsub.Close()
		cancel()
		return h
	}

	h.redis = redisClient
	h.pubsub = pubsub
	h.cancel = cancel
	go h.subscribeRedis()
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
}

func (h *Hub) Clients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify publishes ev to userID's connections. It satisfies the notifier
// interfaces of the logbook and media packages.
func (h *Hub) Notify(userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.Broadcast(userID, payload)
}

func (h *Hub) Broadcast(userID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(userID), payload).Err()
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("user_id", userID).Msg("redis publish failed, delivering locally")
	}
	h.deliver(userID, payload)
}

func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	for msg := range h.pubsub.Channel() {
		userID := userIDFromChannel(msg.Channel)
		if userID == "" {
			continue
		}
		h.deliver(userID, []byte(msg.Payload))
	}
}

func redisChannel(userID string) string {
	return channelPrefix + userID + channelSuffix
}

func userIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(ch, channelPrefix), channelSuffix)
}
