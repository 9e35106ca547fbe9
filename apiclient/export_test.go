package apiclient

// QueuedRequests reports how many callers are parked behind the in-flight refresh.
func QueuedRequests(c *Client) int {
	c.refresh.lock.Lock()
	defer c.refresh.lock.Unlock()
	return len(c.refresh.pending)
}
