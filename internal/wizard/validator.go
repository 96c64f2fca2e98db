package wizard

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
)

var (
	phoneRegex      = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	personNameRegex = regexp.MustCompile(`^[A-Za-z\s\-'.]+$`)
	mrnRegex        = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

const maxPatientAge = 120

type rule struct {
	tag     string
	fn      validator.Func
	message string
}

var rules = []rule{
	{"phone", matches(phoneRegex), "Please enter a valid phone number (e.g., 123-456-7890)"},
	{"personname", matches(personNameRegex), "{0} can only contain letters, spaces, hyphens, apostrophes, and periods"},
	{"mrn", matches(mrnRegex), "Medical record number can only contain letters, numbers, and hyphens"},
	{"hhmm", validTimeOfDay, "{0} must be a time in HH:MM format"},
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func validTimeOfDay(fl validator.FieldLevel) bool {
	_, _, err := scheduler.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// RegisterRules installs the wizard's custom tags and their English messages on
// validate, and makes field errors report JSON field names.
func RegisterRules(validate *validator.Validate, trans ut.Translator) error {
	validate.RegisterTagNameFunc(jsonName)

	for _, r := range rules {
		if err := validate.RegisterValidation(r.tag, r.fn); err != nil {
			return err
		}

		tag, message := r.tag, r.message
		register := func(t ut.Translator) error {
			return t.Add(tag, message, true)
		}
		translate := func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		}
		if err := validate.RegisterTranslation(tag, trans, register, translate); err != nil {
			return err
		}
	}

	return nil
}

// Result maps JSON field names to the first problem found with them.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func (r *Result) add(field, msg string) {
	if _, exists := r.Errors[field]; !exists {
		r.Errors[field] = msg
	}
}

type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator expects validate and trans to have gone through RegisterRules.
func NewValidator(validate *validator.Validate, trans ut.Translator) *Validator {
	return &Validator{
		validate: validate,
		trans:    trans,
	}
}

// ValidateStep checks the part of form that step collects. Preferences are collected
// together with the medical information.
func (v *Validator) ValidateStep(step Step, form *Form, now time.Time) Result {
	r := Result{Errors: make(map[string]string)}

	switch step {
	case StepServiceSelection:
		v.check(&r, form.ServiceSelection)
	case StepDoctorSelection:
		v.check(&r, form.DoctorSelection)
	case StepDateTimeSelection:
		v.check(&r, form.DateTimeSelection)
		checkAppointmentDate(&r, form, now)
	case StepPatientInformation:
		v.check(&r, form.PatientInformation)
		checkPatient(&r, form, now)
	case StepMedicalInformation:
		v.check(&r, form.MedicalInformation)
		v.check(&r, form.Preferences)
		checkPregnancy(&r, form, now)
	case StepReviewConfirm:
		return v.ValidateForm(form, now)
	case StepConfirmation:
	default:
		r.add("step", "Unknown step")
	}

	r.Valid = len(r.Errors) == 0
	return r
}

// ValidateForm checks every step at once.
func (v *Validator) ValidateForm(form *Form, now time.Time) Result {
	r := Result{Errors: make(map[string]string)}

	v.check(&r, form)
	checkAppointmentDate(&r, form, now)
	checkPatient(&r, form, now)
	checkPregnancy(&r, form, now)

	r.Valid = len(r.Errors) == 0
	return r
}

func (v *Validator) check(r *Result, s any) {
	err := v.validate.Struct(s)
	if err == nil {
		return
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		r.add("form", err.Error())
		return
	}
	for _, fe := range validationErrors {
		r.add(fe.Field(), fe.Translate(v.trans))
	}
}

func checkAppointmentDate(r *Result, form *Form, now time.Time) {
	date, err := time.ParseInLocation(DateLayout, form.AppointmentDate, now.Location())
	if err != nil {
		return // reported by the struct tags
	}
	if scheduler.IsDateInPast(date, now) {
		r.add("appointmentDate", "Appointment date cannot be in the past")
	}
}

func checkPatient(r *Result, form *Form, now time.Time) {
	if form.IsReturningPatient && form.MedicalRecordNumber == "" {
		r.add("medicalRecordNumber", "Medical record number is required for returning patients")
	}

	if form.DateOfBirth == "" {
		return
	}
	dob, err := time.ParseInLocation(DateLayout, form.DateOfBirth, now.Location())
	if err != nil {
		return
	}
	switch {
	case !dob.Before(now):
		r.add("dateOfBirth", "Date of birth cannot be in the future")
	case now.Year()-dob.Year() > maxPatientAge:
		r.add("dateOfBirth", "Please enter a valid date of birth")
	}
}

func checkPregnancy(r *Result, form *Form, now time.Time) {
	if form.DueDate != "" {
		due, err := time.ParseInLocation(DateLayout, form.DueDate, now.Location())
		if err == nil && !due.After(now) {
			r.add("dueDate", "Due date must be in the future")
		}
	}

	if form.pregnant() && form.WeeksOfGestation == nil && form.DueDate == "" {
		r.add("weeksOfGestation", "Please provide either weeks of gestation or due date")
	}
}
