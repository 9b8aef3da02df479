package services

// Publisher fans an event out to the current members of a channel. Delivery
// is best effort: no history, no replay, nothing queued for absent members.
type Publisher interface {
	Publish(channel, event string, payload interface{})
}
