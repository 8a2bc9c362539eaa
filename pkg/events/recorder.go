package events

// Recorder is a Handler that keeps every event it receives, in order.
// It backs tests and simple presentation adapters.
type Recorder struct {
	Events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach subscribes the recorder to topics, or to every presentation topic
// when none are given.
func (r *Recorder) Attach(c *Channel, topics ...Topic) *Recorder {
	if len(topics) == 0 {
		topics = PresentationTopics
	}
	c.SubscribeAll(r, topics...)
	return r
}

func (r *Recorder) HandleEvent(ev Event) {
	r.Events = append(r.Events, ev)
}

// Topics returns the recorded topics in order.
func (r *Recorder) Topics() []Topic {
	out := make([]Topic, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Topic
	}
	return out
}

// Count returns how many events with topic were recorded.
func (r *Recorder) Count(topic Topic) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Topic == topic {
			n++
		}
	}
	return n
}

// Last returns the most recent event with topic.
func (r *Recorder) Last(topic Topic) (Event, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Topic == topic {
			return r.Events[i], true
		}
	}
	return Event{}, false
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.Events = nil
}
