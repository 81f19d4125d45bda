package progress_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storefront-tools/demo-provisioner/internal/application/progress"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

type update struct {
	phase   consts.Phase
	percent int
}

func collect(updates *[]update) progress.Func {
	return func(phase consts.Phase, percent int, message string) {
		*updates = append(*updates, update{phase, percent})
	}
}

func TestPhaseStartsAtBottomOfBand(t *testing.T) {
	var updates []update
	reporter := progress.NewReporter(collect(&updates))

	reporter.Phase(consts.PhaseAuth, "validating")
	reporter.Phase(consts.PhaseRepo, "creating repo")
	reporter.Phase(consts.PhaseContentCopy, "copying")

	require.Equal(t, []update{
		{consts.PhaseAuth, 0},
		{consts.PhaseRepo, 10},
		{consts.PhaseContentCopy, 40},
	}, updates)
}

func TestSubProgressRescalesIntoBand(t *testing.T) {
	var updates []update
	reporter := progress.NewReporter(collect(&updates))

	reporter.Sub(consts.PhaseContentCopy, 0, 10, "a")
	reporter.Sub(consts.PhaseContentCopy, 5, 10, "b")
	reporter.Sub(consts.PhaseContentCopy, 10, 10, "c")

	require.Equal(t, []update{
		{consts.PhaseContentCopy, 40},
		{consts.PhaseContentCopy, 55},
		{consts.PhaseContentCopy, 70},
	}, updates)
}

func TestPercentagesNeverDecrease(t *testing.T) {
	var updates []update
	reporter := progress.NewReporter(collect(&updates))

	reporter.Sub(consts.PhaseContentCopy, 9, 10, "a")
	reporter.Phase(consts.PhaseContentCopy, "restarting band")

	require.Len(t, updates, 2)
	require.GreaterOrEqual(t, updates[1].percent, updates[0].percent)
}

func TestCompleteIsExactlyHundred(t *testing.T) {
	var updates []update
	reporter := progress.NewReporter(collect(&updates))

	reporter.Phase(consts.PhaseConfigure, "configuring")
	reporter.Complete("done")

	require.Equal(t, 100, updates[len(updates)-1].percent)
	require.Equal(t, consts.PhaseComplete, updates[len(updates)-1].phase)
}

func TestZeroTotalStaysAtBandStart(t *testing.T) {
	var updates []update
	reporter := progress.NewReporter(collect(&updates))

	reporter.Sub(consts.PhaseContentCopy, 0, 0, "empty site")

	require.Equal(t, []update{{consts.PhaseContentCopy, 40}}, updates)
}
