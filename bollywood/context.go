package bollywood

// Context provides information and capabilities to an Actor during message
// processing.
type Context interface {
	// Engine returns the Actor Engine managing this actor.
	Engine() *Engine
	// Self returns the PID of the actor processing the message.
	Self() *PID
	// Sender returns the PID of the actor that sent the message, if available.
	Sender() *PID
	// Message returns the actual message being processed.
	Message() interface{}
	// RequestID returns the id of the pending Ask this message answers, or
	// "" if the message was sent with plain Send and has no reply slot.
	RequestID() string
	// Reply delivers msg to the Engine.Ask caller waiting on this message's
	// RequestID. A no-op if RequestID is "" or the caller already timed out.
	Reply(msg interface{})
}

// context implements the Context interface.
type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
}

func (c *context) Engine() *Engine      { return c.engine }
func (c *context) Self() *PID           { return c.self }
func (c *context) Sender() *PID         { return c.sender }
func (c *context) Message() interface{} { return c.message }
func (c *context) RequestID() string    { return c.requestID }

func (c *context) Reply(msg interface{}) {
	if c.requestID == "" {
		return
	}
	c.engine.reply(c.requestID, msg)
}
