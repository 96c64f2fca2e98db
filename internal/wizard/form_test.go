package wizard

import (
	"testing"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteFillsDueDate(t *testing.T) {
	form := validForm()
	form.IsPregnant = boolPtr(true)
	form.WeeksOfGestation = intPtr(30)

	form.Complete(now)
	assert.Equal(t, "2024-08-12", form.DueDate)
}

func TestCompleteFillsWeeks(t *testing.T) {
	form := validForm()
	form.IsPregnant = boolPtr(true)
	form.DueDate = now.AddDate(0, 0, 70).Format(DateLayout)

	form.Complete(now)
	require.NotNil(t, form.WeeksOfGestation)
	// due date midnight is 10h short of ten full weeks
	assert.Equal(t, 30, *form.WeeksOfGestation)
}

func TestCompleteLeavesNonPregnantAlone(t *testing.T) {
	form := validForm()
	form.WeeksOfGestation = intPtr(12)

	form.Complete(now)
	assert.Empty(t, form.DueDate)
}

func TestFormAppointment(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	form := validForm()
	form.Duration = 0
	form.Notes = "Prefers a female sonographer"
	form.IsPregnant = boolPtr(true)
	form.WeeksOfGestation = intPtr(20)
	form.DueDate = "2024-10-21"

	a, err := form.Appointment(loc, 45)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.June, 5, 9, 30, 0, 0, loc), a.DateTime)
	assert.Equal(t, 45, a.Duration)
	assert.Equal(t, "dr-amanda-rodriguez", a.DoctorID)
	assert.True(t, a.IsNewPatient)
	assert.Equal(t, domain.ContactEmail, a.PatientInfo.PreferredContactMethod)
	require.NotNil(t, a.Notes)
	assert.Equal(t, "Prefers a female sonographer", *a.Notes)
	require.NotNil(t, a.PatientInfo.DateOfBirth)
	require.NotNil(t, a.PatientInfo.PregnancyInfo)
	assert.Equal(t, 20, *a.PatientInfo.PregnancyInfo.WeeksOfGestation)
	assert.Equal(t, time.Date(2024, time.October, 21, 0, 0, 0, 0, loc), *a.PatientInfo.PregnancyInfo.DueDate)
	assert.Nil(t, a.CurrentMedications)
}

func TestFormAppointmentRejectsBadTime(t *testing.T) {
	form := validForm()
	form.AppointmentTime = "25:00"

	_, err := form.Appointment(time.UTC, 30)
	assert.Error(t, err)
}
