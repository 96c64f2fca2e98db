package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPrev(t *testing.T) {
	assert.Equal(t, StepDoctorSelection, Next(StepServiceSelection))
	assert.Equal(t, StepConfirmation, Next(StepReviewConfirm))
	assert.Equal(t, StepConfirmation, Next(StepConfirmation))

	assert.Equal(t, StepServiceSelection, Prev(StepServiceSelection))
	assert.Equal(t, StepPatientInformation, Prev(StepMedicalInformation))

	assert.Equal(t, Step("bogus"), Next("bogus"))
	assert.Equal(t, Step("bogus"), Prev("bogus"))
	assert.False(t, Step("bogus").Valid())
	assert.True(t, StepReviewConfirm.Valid())
}

func TestWalkForwardVisitsEveryStep(t *testing.T) {
	visited := []Step{StepServiceSelection}
	for s := StepServiceSelection; s != StepConfirmation; {
		s = Next(s)
		visited = append(visited, s)
	}
	assert.Equal(t, steps, visited)
}
