package api

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthouse-core/internal/device"
)

// Feed message types. Clients send subscribe, unsubscribe, ping and toggle;
// the server sends event, snapshot, response, pong and error.
const (
	FeedSubscribe   = "subscribe"
	FeedUnsubscribe = "unsubscribe"
	FeedPing        = "ping"
	FeedToggle      = "toggle"

	FeedEvent    = "event"
	FeedSnapshot = "snapshot"
	FeedResponse = "response"
	FeedPong     = "pong"
	FeedError    = "error"
)

// FeedAll subscribes to every event. "device.*", "room.*" and "house.*"
// subscribe to every event of one entity.
const FeedAll = "*"

// feedChannels is every channel a client may subscribe to.
var feedChannels = func() map[string]struct{} {
	chs := map[string]struct{}{FeedAll: {}}
	for _, ev := range []string{
		EventDeviceCreated, EventDeviceRemoved, EventDeviceStateChanged,
		EventRoomCreated, EventRoomRemoved,
		EventHouseCreated, EventHouseRemoved,
	} {
		chs[ev] = struct{}{}
		entity, _, _ := strings.Cut(ev, ".")
		chs[entity+".*"] = struct{}{}
	}
	return chs
}()

// FeedRequest is a message from a feed client.
type FeedRequest struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channels []string `json:"channels,omitempty"`
	DeviceID string   `json:"device_id,omitempty"`
}

// FeedMessage is a message to a feed client.
type FeedMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Event     string `json:"event,omitempty"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

// channelMatches reports whether a subscription to sub receives eventType.
func channelMatches(sub, eventType string) bool {
	if sub == FeedAll || sub == eventType {
		return true
	}
	entity, ok := strings.CutSuffix(sub, ".*")
	return ok && strings.HasPrefix(eventType, entity+".")
}

// splitChannels trims and de-duplicates chs and separates channels the feed
// knows from those it does not.
func splitChannels(chs []string) (known, unknown []string) {
	seen := make(map[string]struct{}, len(chs))
	for _, ch := range chs {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		if _, dup := seen[ch]; dup {
			continue
		}
		seen[ch] = struct{}{}

		if _, ok := feedChannels[ch]; ok {
			known = append(known, ch)
		} else {
			unknown = append(unknown, ch)
		}
	}
	sort.Strings(unknown)
	return known, unknown
}

// wantsDeviceStates reports whether any of chs receives state changes.
func wantsDeviceStates(chs []string) bool {
	for _, ch := range chs {
		if channelMatches(ch, EventDeviceStateChanged) {
			return true
		}
	}
	return false
}

// feedBackend is the part of the server a feed client calls into.
type feedBackend interface {
	deviceSnapshot(ctx context.Context) ([]device.Device, error)
	toggleDevice(ctx context.Context, rawID, source string) (*device.Device, error)
}

func (s *Server) deviceSnapshot(ctx context.Context) ([]device.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()
	return s.devices.List(ctx)
}

// toggleDevice flips a device on behalf of an MQTT or feed command and emits
// the state change. source names the caller in logs.
func (s *Server) toggleDevice(ctx context.Context, rawID, source string) (*device.Device, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("UUID parsing failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	d, err := s.devices.ToggleState(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("toggling device %s: %w", id, err)
	}
	s.logger.Info("device toggled by command", "source", source, "device_id", d.ID, "state", d.State)
	s.emitDevice(EventDeviceStateChanged, d)
	return d, nil
}
