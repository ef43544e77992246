package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_FirstPopulationJumps(t *testing.T) {
	c := NewController()

	assert.Equal(t, ActionJumpToBottom, c.OnTimelineChange(10, 0))
	assert.Equal(t, Following, c.State())
}

func TestController_GrowthWhileFollowing(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()

	assert.Equal(t, ActionScrollToBottom, c.OnTimelineChange(6, 0))
}

func TestController_GrowthWhileDetached(t *testing.T) {
	// Scenario D: user is reading scrollback when a new message arrives; the
	// viewport must not move.
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)

	assert.Equal(t, ActionNone, c.OnTimelineChange(6, 0))
	assert.True(t, c.UserScrolledUp())
}

func TestController_ForceScrollOverridesDetached(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)

	c.ForceNextScroll()
	assert.Equal(t, ActionScrollToBottom, c.OnTimelineChange(6, 0))
	assert.Equal(t, Following, c.State())

	// Force is consumed, not sticky.
	c.ScrollCompleted()
	c.OnUserScroll(false)
	assert.Equal(t, ActionNone, c.OnTimelineChange(7, 0))
}

func TestController_PrependRestoresOffset(t *testing.T) {
	// Scenario E: fetching older history prepends entries; the controller
	// asks for an offset restore instead of a scroll.
	c := NewController()
	c.OnTimelineChange(50, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)
	c.BeginLoadingOlder()

	assert.Equal(t, ActionRestoreOffset, c.OnTimelineChange(70, 20))
	assert.Equal(t, Detached, c.State())
}

func TestController_UserScrollSuspendedDuringProgrammaticScroll(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)

	// The jump to bottom emits a scroll event that must not be mistaken for
	// the user scrolling.
	c.OnUserScroll(false)
	assert.Equal(t, Following, c.State())

	c.ScrollCompleted()
	c.OnUserScroll(false)
	assert.Equal(t, Detached, c.State())
}

func TestController_UserScrollSuspendedWhileLoadingOlder(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.BeginLoadingOlder()

	c.OnUserScroll(true)
	assert.Equal(t, LoadingOlder, c.State())
	assert.True(t, c.IsLoadingOlder())
}

func TestController_ReturnToBottomResumesFollowing(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)
	c.OnUserScroll(true)

	assert.Equal(t, ActionScrollToBottom, c.OnTimelineChange(6, 0))
}

func TestController_TypingOnlyFirstTransitionScrolls(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()

	assert.Equal(t, ActionScrollToBottom, c.OnTypingChange(1))
	c.ScrollCompleted()
	assert.Equal(t, ActionNone, c.OnTypingChange(2), "1 -> 2 typers must not scroll")
	assert.Equal(t, ActionNone, c.OnTypingChange(1))
	assert.Equal(t, ActionNone, c.OnTypingChange(0))

	// Indicator cleared and reappearing is a fresh 0 -> 1 transition.
	assert.Equal(t, ActionScrollToBottom, c.OnTypingChange(1))
}

func TestController_TypingWhileDetachedDoesNotScroll(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)

	assert.Equal(t, ActionNone, c.OnTypingChange(1))
}

func TestController_NoChangeNoAction(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()

	assert.Equal(t, ActionNone, c.OnTimelineChange(5, 0))
}

func TestController_FailedOlderFetchRecovers(t *testing.T) {
	// A failed older-history fetch never delivers a prepend; cancelling must
	// close the loading window so esc and the near-bottom rule work again.
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.OnUserScroll(false)
	c.BeginLoadingOlder()

	c.CancelLoadingOlder()
	assert.False(t, c.IsLoadingOlder())
	assert.Equal(t, Detached, c.State())

	c.OnUserScroll(true)
	assert.Equal(t, Following, c.State())
	assert.Equal(t, ActionScrollToBottom, c.OnTimelineChange(6, 0))
}

func TestController_CancelWithoutLoadingIsNoOp(t *testing.T) {
	c := NewController()
	c.OnTimelineChange(5, 0)

	c.CancelLoadingOlder()
	assert.Equal(t, Following, c.State())
}

func TestController_EmptyPrependClosesLoadingWindow(t *testing.T) {
	// An older-history page may dedup entirely against known entries. The
	// loading window must still close so user scrolls apply again.
	c := NewController()
	c.OnTimelineChange(5, 0)
	c.ScrollCompleted()
	c.BeginLoadingOlder()

	assert.Equal(t, ActionNone, c.OnTimelineChange(5, 0))
	assert.False(t, c.IsLoadingOlder())

	c.OnUserScroll(true)
	assert.Equal(t, Following, c.State())
}
