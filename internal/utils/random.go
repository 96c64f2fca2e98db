package utils

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Olivia", "Emma", "Ava", "Sophia", "Isabella", "Mia", "Amelia", "Harper", "Evelyn", "Abigail",
	"Priya", "Ananya", "Maria", "Lucia", "Grace", "Chloe", "Zoe", "Nora", "Leah", "Hannah",
}
var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
	"Patel", "Sharma", "Chen", "Nguyen", "Kim", "Lopez", "Wilson", "Anderson", "Taylor", "Thomas",
}

func GenerateRandomName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

var roles = []domain.Role{
	domain.RoleReceptionist,
	domain.RoleDoctor,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

// GenerateUsernameFromName turns "Maria Lopez" into something like "mlopez42".
func GenerateUsernameFromName(fullName string) string {
	parts := strings.Fields(strings.ToLower(fullName))
	username := ""

	for i, part := range parts {
		if i < len(parts)-1 {
			username += part[:1]
			continue
		}
		username += part
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomName()
	username := GenerateUsernameFromName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

// secureIntn is rand.Intn backed by crypto/rand, for values a client must not guess.
func secureIntn(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", secureIntn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[secureIntn(len(letters))]
	}
	return string(randomPassword)
}

// no 0/O or 1/I, codes get read out over the phone
var codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateConfirmationCode returns a code like "MC-7K2P9Q".
func GenerateConfirmationCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = codeAlphabet[secureIntn(len(codeAlphabet))]
	}
	return "MC-" + string(code)
}

var reasons = []string{
	"Routine prenatal check-up",
	"Annual gynecological exam",
	"Ultrasound follow-up",
	"Fertility consultation",
	"Postpartum review",
	"Contraception counselling",
}

// GenerateRandomAppointment books a random patient with doctor for service at start.
// The caller is responsible for start being a free slot.
func GenerateRandomAppointment(doctor *domain.Doctor, service *domain.MedicalService, start time.Time, duration int) *domain.Appointment {
	name := GenerateRandomName()
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"

	a := &domain.Appointment{
		ID:             uuid.NewString(),
		DoctorID:       doctor.ID,
		ServiceID:      service.ID,
		DateTime:       start,
		Duration:       duration,
		Status:         domain.StatusScheduled,
		ReasonForVisit: reasons[rand.Intn(len(reasons))],
		IsNewPatient:   rand.Intn(2) == 0,
		AddToCalendar:  "none",
		PatientInfo: domain.PatientInfo{
			Name:                   name,
			Email:                  email,
			Phone:                  fmt.Sprintf("555-%03d-%04d", rand.Intn(1000), rand.Intn(10000)),
			PreferredContactMethod: domain.ContactEmail,
		},
		ConfirmationCode: GenerateConfirmationCode(),
	}

	if service.Category == domain.CategoryObstetrics {
		weeks := rand.Intn(40) + 1
		a.PatientInfo.PregnancyInfo = &domain.PregnancyInfo{
			IsPregnant:       true,
			WeeksOfGestation: &weeks,
			IsHighRisk:       rand.Intn(5) == 0,
		}
	}

	return a
}
