package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtmitchel/LONewDesign-sub007/internal/geom"
)

func managerFixture(t *testing.T) *fixture {
	return newFixture(t,
		rect("r1", 0, 0, 100, 50),
		rect("r2", 200, 0, 100, 50),
		circle("c1", 400, 0, 20),
		freeConnector("k1", geom.Point{}, geom.Point{X: 10, Y: 10}),
	)
}

func TestScheduleAttachDebounces(t *testing.T) {
	f := managerFixture(t)

	f.manager.ScheduleAttach([]string{"r1"}, 0)
	f.clock.Advance(50 * time.Millisecond)
	f.manager.ScheduleAttach([]string{"r1", "r2"}, 0)
	f.clock.Advance(50 * time.Millisecond)
	f.sched.RunDue()
	assert.False(t, f.transformer.Visible())
	assert.True(t, f.manager.Pending())

	f.clock.Advance(25 * time.Millisecond)
	f.sched.RunDue()
	assert.Equal(t, []string{"r1", "r2"}, f.transformer.IDs())
	assert.Equal(t, 0, f.transformer.ForceShows())

	f.sched.Frame()
	assert.Equal(t, 1, f.transformer.ForceShows())
}

func TestRefreshUsesShorterDelay(t *testing.T) {
	f := managerFixture(t)

	f.manager.Refresh([]string{"r2"}, 0)
	f.clock.Advance(DefaultRefreshDelay)
	f.sched.RunDue()
	assert.Equal(t, []string{"r2"}, f.transformer.IDs())
}

func TestAttachImmediatelyAppliesAspectPolicy(t *testing.T) {
	f := managerFixture(t)

	assert.Equal(t, 2, f.manager.AttachImmediately([]string{"r1", "c1"}))
	assert.True(t, f.transformer.KeepRatio())

	assert.Equal(t, 2, f.manager.AttachImmediately([]string{"r1", "r2"}))
	assert.False(t, f.transformer.KeepRatio())
}

func TestAttachConnectorOnlySelectionHidesWidget(t *testing.T) {
	f := managerFixture(t)
	f.manager.AttachImmediately([]string{"r1"})

	assert.Equal(t, 0, f.manager.AttachImmediately([]string{"k1"}))
	assert.False(t, f.transformer.Visible())
	f.sched.Frame()
	assert.Equal(t, 0, f.transformer.ForceShows())
}

func TestCancelPendingAndDetach(t *testing.T) {
	f := managerFixture(t)

	f.manager.ScheduleAttach([]string{"r1"}, 10*time.Millisecond)
	f.manager.CancelPending()
	f.clock.Advance(time.Second)
	f.sched.Frame()
	assert.False(t, f.transformer.Visible())

	f.manager.AttachImmediately([]string{"r1"})
	f.manager.Detach()
	f.manager.Detach()
	f.sched.Frame()
	assert.False(t, f.transformer.Visible())
	assert.Equal(t, 0, f.transformer.ForceShows())
}

func TestAttachWaitsForRunningGesture(t *testing.T) {
	f := managerFixture(t)
	f.manager.AttachImmediately([]string{"r1"})
	require.True(t, f.transformer.HandleStart(HandleBottomRight, geom.Point{X: 100, Y: 50}))

	assert.Equal(t, 0, f.manager.AttachImmediately([]string{"r1", "r2"}))
	assert.True(t, f.transformer.Active())
	assert.Equal(t, []string{"r1"}, f.transformer.IDs())
	assert.True(t, f.manager.Pending())

	f.clock.Advance(DefaultRefreshDelay)
	f.sched.RunDue()
	assert.True(t, f.transformer.Active(), "re-queued while the gesture runs")
	assert.True(t, f.manager.Pending())

	f.manager.Detach()
	assert.True(t, f.transformer.Visible())

	f.transformer.HandleEnd()
	f.clock.Advance(DefaultRefreshDelay)
	f.sched.RunDue()
	assert.False(t, f.transformer.Visible())
	assert.False(t, f.manager.Pending())
}
