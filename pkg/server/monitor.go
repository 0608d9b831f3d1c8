package server

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/events"
)

// RegisterMonitorHandler attaches a watermill handler that observes every
// mirrored relay event and logs generation outcomes. It never touches the
// client delivery path.
func RegisterMonitorHandler(router *events.EventRouter) {
	router.AddHandler("relay-monitor", RelayTopic, func(msg *message.Message) error {
		event, err := events.NewEventFromJson(msg.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("unparseable relay event on monitor topic")
			return nil
		}

		meta := event.Metadata()
		switch e := event.(type) {
		case *events.EventFinal:
			log.Info().
				Str("request_id", meta.RequestID).
				Str("action", meta.Action).
				Int("text_len", len(e.Text)).
				Msg("generation finished")
		case *events.EventWorkflow:
			numNodes := 0
			if e.Workflow != nil {
				numNodes = len(e.Workflow.Nodes)
			}
			log.Info().
				Str("request_id", meta.RequestID).
				Int("num_nodes", numNodes).
				Msg("workflow document extracted")
		case *events.EventError:
			log.Warn().
				Str("request_id", meta.RequestID).
				Str("error", e.ErrorString).
				Msg("generation errored")
		}
		return nil
	})
}
