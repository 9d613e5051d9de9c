package coordinator

// Subscribe registers for refresh updates. The returned channel holds at most
// one pending update; if the subscriber falls behind, older updates are
// dropped in favour of the newest. Call cancel to unsubscribe, which closes
// the channel.
func (c *Coordinator) Subscribe() (updates <-chan Update, cancel func()) {
	ch := make(chan Update, 1)

	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.subMu.Unlock()

	cancel = func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// subscriberCount returns the number of active subscriptions.
func (c *Coordinator) subscriberCount() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subscribers)
}

func (c *Coordinator) publish(u Update) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- u:
			continue
		default:
		}
		// Full: drop the stale update and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}
