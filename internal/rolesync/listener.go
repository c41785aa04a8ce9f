package rolesync

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/events"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/logger"
)

const (
	profileChannelPrefix = "profile:changed:"
	notifyChannelPrefix  = "notify:"

	resubscribeBackoff = 5 * time.Second
)

// ProfileChannel is the Redis channel announcing record-level changes
// to one user's profile.
func ProfileChannel(userID string) string {
	return profileChannelPrefix + userID
}

// NotifyChannel is the generic per-user notification feed; role
// changes announced as application messages arrive here.
func NotifyChannel(userID string) string {
	return notifyChannelPrefix + userID
}

// PublishRoleChange announces ev on the user's profile channel so
// every service instance (not just the one handling the admin action)
// reconciles the affected session.
func PublishRoleChange(
	ctx context.Context,
	client *goredis.Client,
	ev events.RoleChange,
) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, ProfileChannel(ev.UserID), payload).Err()
}

// Listen subscribes to both per-user channel families and forwards
// decoded role changes to the syncer. A dropped subscription is logged
// and re-established with backoff; serving never blocks on it, a stale
// role until reconnect beats a stalled application.
func (s *Syncer) Listen(ctx context.Context, client *goredis.Client) {
	for {
		if err := s.listenOnce(ctx, client); err != nil {
			logger.Warn("role sync subscription dropped", map[string]any{
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (s *Syncer) listenOnce(ctx context.Context, client *goredis.Client) error {
	pubsub := client.PSubscribe(
		ctx,
		profileChannelPrefix+"*",
		notifyChannelPrefix+"*",
	)
	defer pubsub.Close()

	// Surface subscription failures immediately instead of silently
	// reading from a dead channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return context.Cause(ctx)
			}
			s.dispatch(ctx, msg)
		}
	}
}

func (s *Syncer) dispatch(ctx context.Context, msg *goredis.Message) {
	var ev events.RoleChange
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		// The notify feed carries other application messages too;
		// anything that does not decode as a role change is ignored.
		return
	}
	if ev.NewRole == "" {
		return
	}

	// The channel name is authoritative for the affected user.
	if ev.UserID == "" {
		ev.UserID = userFromChannel(msg.Channel)
	}

	s.Handle(ctx, ev)
}

func userFromChannel(channel string) string {
	if rest, ok := strings.CutPrefix(channel, profileChannelPrefix); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(channel, notifyChannelPrefix); ok {
		return rest
	}
	return ""
}
