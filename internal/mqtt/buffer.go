package mqtt

// queuedMsg holds a serialized MQTT message waiting for the broker to come
// back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue is a bounded FIFO of messages to replay after reconnection.
// When full, the oldest message is dropped to make room; the drop count is
// reported on drain. Not safe for concurrent use; caller must synchronize.
type offlineQueue struct {
	msgs    []queuedMsg
	max     int
	dropped int
}

func newOfflineQueue(max int) *offlineQueue {
	return &offlineQueue{max: max}
}

func (q *offlineQueue) push(msg queuedMsg) {
	if len(q.msgs) == q.max {
		copy(q.msgs, q.msgs[1:])
		q.msgs = q.msgs[:len(q.msgs)-1]
		q.dropped++
	}
	q.msgs = append(q.msgs, msg)
}

// drain empties the queue, returning the queued messages oldest-first and
// the number of messages dropped since the last drain.
func (q *offlineQueue) drain() ([]queuedMsg, int) {
	msgs := q.msgs
	dropped := q.dropped
	q.msgs = nil
	q.dropped = 0
	return msgs, dropped
}

func (q *offlineQueue) len() int {
	return len(q.msgs)
}
