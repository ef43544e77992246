// Package viewport decides how the transcript viewport reacts to timeline
// mutations: follow the newest entry, stay put while the user reads
// scrollback, or restore position after older history is prepended.
package viewport

// State is the viewport's position relative to the conversation tail.
type State int

const (
	// Following tracks the newest entry; growth scrolls to bottom.
	Following State = iota
	// Detached means the user scrolled up; growth leaves the viewport alone.
	Detached
	// LoadingOlder is set while an older-history page is being prepended.
	LoadingOlder
)

// Action is what the render layer should do after a mutation.
type Action int

const (
	// ActionNone leaves the viewport untouched.
	ActionNone Action = iota
	// ActionJumpToBottom scrolls to the newest entry without animation.
	ActionJumpToBottom
	// ActionScrollToBottom scrolls to the newest entry with animation.
	ActionScrollToBottom
	// ActionRestoreOffset re-applies the pre-prepend scroll offset so the
	// visible content does not jump.
	ActionRestoreOffset
)

// Controller is the scroll state machine. It is fed three signals: user
// scroll position (near-bottom or not), a force flag set when the user's own
// send must scroll regardless of position, and the loading-older window.
type Controller struct {
	state       State
	forceScroll bool
	inFlight    bool // programmatic scroll pending; user scroll signals are suspended
	count       int
	typingSeen  int
}

// NewController creates a controller in the following state with an empty
// timeline.
func NewController() *Controller {
	return &Controller{state: Following}
}

// State returns the current viewport state.
func (c *Controller) State() State {
	return c.state
}

// UserScrolledUp reports whether the user is reading scrollback.
func (c *Controller) UserScrolledUp() bool {
	return c.state == Detached
}

// ForceNextScroll guarantees the next timeline growth scrolls to bottom,
// regardless of current position. Set when the user submits a message or an
// answer: their own action always brings the newest entry into view.
func (c *Controller) ForceNextScroll() {
	c.forceScroll = true
}

// BeginLoadingOlder marks that an older-history fetch is in progress and the
// next top-growth is a prepend.
func (c *Controller) BeginLoadingOlder() {
	c.state = LoadingOlder
}

// IsLoadingOlder reports whether an older-history prepend is in progress.
func (c *Controller) IsLoadingOlder() bool {
	return c.state == LoadingOlder
}

// CancelLoadingOlder closes the prepend window without a prepend, as when the
// older-history fetch fails. The user was reading scrollback when the fetch
// started, so the controller lands in Detached and user scrolls apply again.
func (c *Controller) CancelLoadingOlder() {
	if c.state == LoadingOlder {
		c.state = Detached
	}
}

// OnUserScroll feeds the user's scroll position, derived by the render layer
// from a near-bottom threshold. Ignored while a programmatic scroll is in
// flight (the machine moved the viewport, not the user) and while a prepend
// is pending.
func (c *Controller) OnUserScroll(nearBottom bool) {
	if c.inFlight || c.state == LoadingOlder {
		return
	}
	if nearBottom {
		c.state = Following
	} else {
		c.state = Detached
	}
}

// ScrollCompleted reports that a programmatic scroll finished; user scroll
// signals apply again.
func (c *Controller) ScrollCompleted() {
	c.inFlight = false
}

// OnTimelineChange decides the scroll action for a timeline that now holds
// count entries, of which prepended were inserted at the top.
func (c *Controller) OnTimelineChange(count, prepended int) Action {
	prev := c.count
	c.count = count

	switch {
	case count == prev:
		// A loading-older fetch can dedup to nothing; the prepend window
		// still closes.
		if c.state == LoadingOlder {
			c.state = Detached
		}
		return ActionNone

	case prev == 0 && count > 0:
		// First population always lands at the bottom, without animation.
		c.state = Following
		c.forceScroll = false
		c.inFlight = true
		return ActionJumpToBottom

	case prepended > 0:
		// Older history arrived; hold the user's place. They are reading
		// scrollback by definition, so the machine lands in Detached.
		c.state = Detached
		return ActionRestoreOffset

	case c.forceScroll || c.state == Following:
		c.forceScroll = false
		c.state = Following
		c.inFlight = true
		return ActionScrollToBottom

	default:
		return ActionNone
	}
}

// OnTypingChange decides the scroll action for a typing-indicator change.
// Only the 0 -> n transition follows the near-bottom rule; later updates to
// an already-visible indicator never move the viewport.
func (c *Controller) OnTypingChange(typingCount int) Action {
	prev := c.typingSeen
	c.typingSeen = typingCount

	if prev != 0 || typingCount == 0 {
		return ActionNone
	}
	if c.state != Following {
		return ActionNone
	}
	c.inFlight = true
	return ActionScrollToBottom
}
