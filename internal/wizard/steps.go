package wizard

type Step string

const (
	StepServiceSelection   Step = "service-selection"
	StepDoctorSelection    Step = "doctor-selection"
	StepDateTimeSelection  Step = "date-time-selection"
	StepPatientInformation Step = "patient-information"
	StepMedicalInformation Step = "medical-information"
	StepReviewConfirm      Step = "review-confirm"
	StepConfirmation       Step = "confirmation"
)

var steps = []Step{
	StepServiceSelection,
	StepDoctorSelection,
	StepDateTimeSelection,
	StepPatientInformation,
	StepMedicalInformation,
	StepReviewConfirm,
	StepConfirmation,
}

func indexOf(step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}

// Valid reports whether step is one of the known wizard steps.
func (s Step) Valid() bool {
	return indexOf(s) >= 0
}

// Next returns the step after s. The last step and unknown steps return themselves.
func Next(s Step) Step {
	i := indexOf(s)
	if i < 0 || i == len(steps)-1 {
		return s
	}
	return steps[i+1]
}

// Prev returns the step before s. The first step and unknown steps return themselves.
func Prev(s Step) Step {
	i := indexOf(s)
	if i <= 0 {
		return s
	}
	return steps[i-1]
}
