package http

import (
	"time"

	"github.com/laibajaved880/team-chat/internal/core"
	"github.com/laibajaved880/team-chat/internal/proto"
)

// outboundFromEvent maps a hub event to its wire frame.
func outboundFromEvent(ev *core.Event) any {
	switch ev.Kind {
	case core.EventChat:
		return proto.ChatEvent{
			Type:      proto.TypeChat,
			Room:      ev.Room,
			Username:  ev.User,
			Content:   ev.Message.Text,
			Timestamp: ev.Message.CreatedAt.Format(time.RFC3339Nano),
		}
	case core.EventUserJoined:
		return proto.PresenceEvent{
			Type:     proto.TypeJoin,
			Room:     ev.Room,
			Username: ev.User,
		}
	case core.EventUserLeft:
		return proto.PresenceEvent{
			Type:     proto.TypeLeave,
			Room:     ev.Room,
			Username: ev.User,
		}
	case core.EventOnlineList:
		users := ev.Users
		if users == nil {
			users = []string{}
		}
		return proto.OnlineListEvent{
			Type:  proto.TypeOnlineList,
			Room:  ev.Room,
			Users: users,
		}
	case core.EventTyping:
		return proto.TypingEvent{
			Type:     proto.TypeTyping,
			Room:     ev.Room,
			Username: ev.User,
			IsTyping: ev.IsTyping,
		}
	default:
		return nil
	}
}
