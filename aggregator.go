package unified2

import (
	"fmt"

	"github.com/seedtray/unified2/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Aggregator folds a record stream into events. An event record opens a
// new event; the packet and extra data records after it belong to that
// event until the next event record arrives.
type Aggregator struct {
	queue  []Record
	logger logrus.FieldLogger
}

func NewAggregator(logger logrus.FieldLogger) *Aggregator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Aggregator{logger: logger}
}

// Add queues rec. When rec is an event and another event is already
// queued, the queued event is completed and returned.
func (a *Aggregator) Add(rec Record) *Event {
	var event *Event
	switch rec.Kind() {
	case KindEvent:
		if len(a.queue) > 0 {
			event = a.Flush()
		}
		a.queue = append(a.queue, rec)
	default:
		if len(a.queue) > 0 {
			a.queue = append(a.queue, rec)
			break
		}
		metrics.OrphanRecordsTotal.Inc()
		a.logger.WithFields(logrus.Fields{
			"kind": rec.Kind().String(),
			"type": rec.RecordType(),
		}).Warn("discarding non-event record while not in event context")
	}
	return event
}

// Pending reports whether an event is queued.
func (a *Aggregator) Pending() bool {
	return len(a.queue) > 0
}

// Flush completes the queued event, attaching the queued packets and extra
// data in arrival order. It returns nil if nothing is queued.
func (a *Aggregator) Flush() *Event {
	if len(a.queue) == 0 {
		return nil
	}
	if a.queue[0].Kind() != KindEvent {
		panic(fmt.Sprintf("unified2: aggregator queue starts with a %s record", a.queue[0].Kind()))
	}
	event := a.queue[0].(*Event)
	for _, rec := range a.queue[1:] {
		switch rec.Kind() {
		case KindPacket:
			event.Packets = append(event.Packets, rec.(*Packet))
		case KindExtraData:
			event.ExtraData = append(event.ExtraData, rec.(*ExtraData))
		case KindEvent:
			panic("unified2: aggregator queue holds more than one event")
		}
	}
	clear(a.queue)
	a.queue = a.queue[:0]
	metrics.EventsTotal.Inc()
	return event
}
