package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/treasury/pkg/domain/events"
)

// groupNameFor returns the Redis consumer group for eventType, so every
// registered type sees every message on the shared stream.
func groupNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix+":group", eventType)
}

// topicNameFor returns the Kafka topic for eventType.
func topicNameFor(prefix string, eventType events.EventType) string {
	return prefix + "." + strings.ToLower(eventType.String())
}

// dlqTopicNameFor returns the Kafka dead-letter topic for eventType.
func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return prefix + ".dlq." + strings.ToLower(eventType.String())
}

func nameFor(prefix string, eventType events.EventType) string {
	parts := strings.Split(eventType.String(), ".")
	if len(parts) == 2 {
		return fmt.Sprintf("%s:%s:%s", prefix, strings.ToLower(parts[0]), strings.ToLower(parts[1]))
	}
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(eventType.String()))
}
