package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mothercare-dev/clinic/backend/internal/booking"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/mothercare-dev/clinic/backend/internal/utils"
)

//go:embed data/*.json
var dataFS embed.FS

// Catalogue is the clinic's published doctors and services.
type Catalogue struct {
	Doctors  []*domain.Doctor
	Services []*domain.MedicalService
}

func LoadCatalogue() (*Catalogue, error) {
	c := &Catalogue{}

	if err := readJSON("data/doctors.json", &c.Doctors); err != nil {
		return nil, err
	}
	if err := readJSON("data/services.json", &c.Services); err != nil {
		return nil, err
	}

	for _, d := range c.Doctors {
		if err := utils.ValidateDoctorProfile(d); err != nil {
			return nil, fmt.Errorf("doctor %s: %w", d.ID, err)
		}
	}

	return c, nil
}

func readJSON(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (c *Catalogue) doctor(id string) *domain.Doctor {
	for _, d := range c.Doctors {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (c *Catalogue) service(id string) *domain.MedicalService {
	for _, s := range c.Services {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func isDuplicate(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == constraint
}

// SeedCatalogue inserts the catalogue. Rows that already exist are left alone, so
// it can be run against a seeded database.
func SeedCatalogue(ctx context.Context, r *repository.Repository, c *Catalogue) (doctors int, services int, err error) {
	for _, d := range c.Doctors {
		if err := r.CreateDoctor(ctx, d); err != nil {
			if isDuplicate(err, "doctors_pkey") {
				slog.Info("doctor already exists", "doctor_id", d.ID)
				continue
			}
			return doctors, services, fmt.Errorf("doctor %s: %w", d.ID, err)
		}
		doctors++
	}

	for _, s := range c.Services {
		if err := r.CreateService(ctx, s); err != nil {
			if isDuplicate(err, "services_pkey") {
				slog.Info("service already exists", "service_id", s.ID)
				continue
			}
			return doctors, services, fmt.Errorf("service %s: %w", s.ID, err)
		}
		services++
	}

	return doctors, services, nil
}

type demoPatient struct {
	name          string
	email         string
	phone         string
	dateOfBirth   time.Time
	mrn           string
	contact       domain.ContactMethod
	pregnantWeeks int
}

type demoAppointment struct {
	doctorID   string
	serviceID  string
	inDays     int
	at         string
	duration   int
	status     domain.AppointmentStatus
	notes      string
	newPatient bool
	patient    demoPatient
}

var demoAppointments = []demoAppointment{
	{
		doctorID: "dr-sarah-johnson", serviceID: "obstetrics-maternity-care", inDays: 2, at: "10:00", duration: 30,
		status: domain.StatusConfirmed, notes: "Regular prenatal checkup",
		patient: demoPatient{
			name: "Emily Wilson", email: "emily.wilson@example.com", phone: "(555) 123-4567",
			dateOfBirth: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), mrn: "MRN-12345",
			contact: domain.ContactEmail, pregnantWeeks: 24,
		},
	},
	{
		doctorID: "dr-michael-chen", serviceID: "advanced-laparoscopy", inDays: 3, at: "14:30", duration: 60,
		status: domain.StatusScheduled, notes: "Initial consultation for laparoscopic procedure", newPatient: true,
		patient: demoPatient{
			name: "Sophia Martinez", email: "sophia.m@example.com", phone: "(555) 987-6543",
			dateOfBirth: time.Date(1985, time.September, 22, 0, 0, 0, 0, time.UTC), contact: domain.ContactPhone,
		},
	},
	{
		doctorID: "dr-priya-sharma", serviceID: "infertility-treatment", inDays: 1, at: "11:15", duration: 45,
		status: domain.StatusConfirmed, notes: "Follow-up after initial fertility assessment",
		patient: demoPatient{
			name: "Jessica and David Thompson", email: "jthompson@example.com", phone: "(555) 456-7890",
			dateOfBirth: time.Date(1988, time.April, 10, 0, 0, 0, 0, time.UTC), mrn: "MRN-67890",
			contact: domain.ContactEmail,
		},
	},
	{
		doctorID: "dr-amanda-rodriguez", serviceID: "3d-4d-sonography", inDays: 5, at: "09:30", duration: 30,
		status: domain.StatusScheduled, notes: "20-week anatomy scan",
		patient: demoPatient{
			name: "Olivia Johnson", email: "olivia.j@example.com", phone: "(555) 234-5678",
			dateOfBirth: time.Date(1992, time.November, 5, 0, 0, 0, 0, time.UTC), mrn: "MRN-23456",
			contact: domain.ContactSMS, pregnantWeeks: 20,
		},
	},
	{
		doctorID: "dr-sarah-johnson", serviceID: "high-risk-pregnancy", inDays: 2, at: "15:00", duration: 45,
		status: domain.StatusConfirmed, notes: "High-risk pregnancy monitoring",
		patient: demoPatient{
			name: "Rachel Kim", email: "rachel.kim@example.com", phone: "(555) 345-6789",
			contact: domain.ContactPhone, pregnantWeeks: 30,
		},
	},
}

// workingDay moves day forward until the doctor works on it.
func workingDay(doctor *domain.Doctor, day time.Time) time.Time {
	for i := 0; i < 7; i++ {
		if scheduler.IsAvailableOnWeekday(doctor.Availability, day.Weekday()) {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// DemoAppointments builds the showcase appointments relative to now. Days the doctor
// does not work are pushed to the next working day.
func DemoAppointments(c *Catalogue, now time.Time) ([]*domain.Appointment, error) {
	today := scheduler.StartOfDay(now)
	appointments := make([]*domain.Appointment, 0, len(demoAppointments))

	for _, demo := range demoAppointments {
		doctor := c.doctor(demo.doctorID)
		service := c.service(demo.serviceID)
		if doctor == nil || service == nil {
			return nil, fmt.Errorf("demo appointment references unknown doctor %q or service %q", demo.doctorID, demo.serviceID)
		}

		day := workingDay(doctor, today.AddDate(0, 0, demo.inDays))
		start, err := scheduler.CombineDateAndTime(day, demo.at)
		if err != nil {
			return nil, err
		}

		a := utils.GenerateRandomAppointment(doctor, service, start, demo.duration)
		a.Status = demo.status
		a.ReasonForVisit = demo.notes
		a.Notes = &demo.notes
		a.IsNewPatient = demo.newPatient
		a.ConfirmationSent = true
		a.PatientInfo = domain.PatientInfo{
			Name:                   demo.patient.name,
			Email:                  demo.patient.email,
			Phone:                  demo.patient.phone,
			IsReturningPatient:     !demo.newPatient,
			PreferredContactMethod: demo.patient.contact,
		}
		if !demo.patient.dateOfBirth.IsZero() {
			dob := demo.patient.dateOfBirth
			a.PatientInfo.DateOfBirth = &dob
		}
		if demo.patient.mrn != "" {
			mrn := demo.patient.mrn
			a.PatientInfo.MedicalRecordNumber = &mrn
		}
		if weeks := demo.patient.pregnantWeeks; weeks > 0 {
			due := scheduler.DueDateFromWeeksOfGestation(weeks, today)
			a.PatientInfo.PregnancyInfo = &domain.PregnancyInfo{
				IsPregnant:       true,
				WeeksOfGestation: &weeks,
				DueDate:          &due,
				IsHighRisk:       demo.serviceID == "high-risk-pregnancy",
			}
		}

		appointments = append(appointments, a)
	}

	return appointments, nil
}

// SeedDemoAppointments inserts the showcase appointments. Ones that clash with an
// existing booking are skipped.
func SeedDemoAppointments(ctx context.Context, r *repository.Repository, c *Catalogue, now time.Time) (int, error) {
	appointments, err := DemoAppointments(c, now)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, a := range appointments {
		if err := r.CreateAppointmentIfFree(ctx, a); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				slog.Warn("demo appointment clashes with an existing one", "doctor_id", a.DoctorID, "date_time", a.DateTime)
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// SeedRandomAppointments books n random patients into free slots over the next
// days days. Attempts that find no free slot are not retried.
func SeedRandomAppointments(ctx context.Context, r *repository.Repository, c *Catalogue, n, days int, now time.Time) (int, error) {
	if len(c.Doctors) == 0 || len(c.Services) == 0 || days <= 0 {
		return 0, nil
	}

	today := scheduler.StartOfDay(now)
	inserted := 0

	for i := 0; i < n; i++ {
		doctor := c.Doctors[rand.Intn(len(c.Doctors))]
		service := c.Services[rand.Intn(len(c.Services))]
		duration := booking.ServiceDuration(service)
		day := today.AddDate(0, 0, 1+rand.Intn(days))

		existing, err := r.GetAppointmentsByDoctorAndDay(ctx, doctor.ID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return inserted, err
		}

		slots, err := scheduler.New(doctor, existing).Slots(day, duration)
		if err != nil {
			return inserted, err
		}
		if len(slots) == 0 {
			continue
		}

		slot := slots[rand.Intn(len(slots))]
		a := utils.GenerateRandomAppointment(doctor, service, slot.StartTime, duration)
		if err := r.CreateAppointmentIfFree(ctx, a); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				continue
			}
			return inserted, err
		}
		inserted++
	}

	return inserted, nil
}
