package cloudvar_client

// outbox buffers packets produced while no transport is live. Packets
// leave in the order they were queued, as one batch, when a connection
// opens.
type outbox struct {
	packets []Packet
}

func newOutbox() *outbox {
	return &outbox{}
}

func (o *outbox) enqueue(p Packet) {
	o.packets = append(o.packets, p)
}

// drain removes and returns every queued packet in FIFO order.
func (o *outbox) drain() []Packet {
	out := o.packets
	o.packets = nil
	return out
}

// requeue puts packets back at the head of the queue, ahead of anything
// enqueued since the drain.
func (o *outbox) requeue(packets []Packet) {
	if len(packets) == 0 {
		return
	}
	head := make([]Packet, 0, len(packets)+len(o.packets))
	head = append(head, packets...)
	o.packets = append(head, o.packets...)
}

func (o *outbox) size() int {
	return len(o.packets)
}
