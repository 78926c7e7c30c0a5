package web

import (
	"strings"

	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/hub"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

var outboundTypes = map[string]protocol.MessageType{
	fusion.TopicCommandExecuted.Name():   protocol.TypeExecuted,
	fusion.TopicClick.Name():             protocol.TypeClick,
	fusion.TopicSwipe.Name():             protocol.TypeSwipe,
	fusion.TopicDirective.Name():         protocol.TypeDirective,
	fusion.TopicConflictResolved.Name():  protocol.TypeConflict,
	fusion.TopicPrioritiesUpdated.Name(): protocol.TypePriorities,
}

// outboundType maps an engine topic to its wire type. Inbound topics are
// not streamed.
func outboundType(topic string) (protocol.MessageType, bool) {
	if t, ok := outboundTypes[topic]; ok {
		return t, true
	}
	if m, ok := strings.CutSuffix(topic, ":command:executed"); ok && fusion.Modality(m).Valid() {
		return protocol.TypeModalityExecuted, true
	}
	return "", false
}

// forward is the bus tap. It runs on the engine loop and must not block.
func (s *Server) forward(topic string, payload any) {
	msgType, ok := outboundType(topic)
	if !ok {
		return
	}

	msg, err := protocol.NewMessage(msgType, payload)
	if err == nil {
		err = s.stream.BroadcastJSON(topic, msg)
	}
	if err != nil {
		s.logger.Warn("encode event", "topic", topic, "error", err)
		return
	}
	s.forwarded.Add(1)
}

// handleEventsWS streams engine events. ?topics=a,b* narrows the stream.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client, err := hub.NewClient(s.stream, c, hub.ParseFilter(c.Query("topics")))
	if err != nil {
		s.logger.Debug("event stream closed", "error", err)
		c.Close()
		return
	}
	client.Run()
}
