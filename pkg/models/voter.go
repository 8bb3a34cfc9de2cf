package models

import "time"

// Voter is a registered voter imported from a registration-authority dump.
type Voter struct {
	ID               string     `json:"id" db:"id"`
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	DOB              *time.Time `json:"dob,omitempty" db:"dob"`
	Gender           string     `json:"gender" db:"gender"`
	AffiliationID    *string    `json:"affiliation_id,omitempty" db:"affiliation_id"` // nil = unaffiliated
	IsActive         bool       `json:"is_active" db:"is_active"`
	RegistrationDate *time.Time `json:"registration_date,omitempty" db:"registration_date"`
	RegistrarID      string     `json:"registrar_id" db:"registrar_id"`
	DumpDate         time.Time  `json:"dump_date" db:"dump_date"`
	AddressID        string     `json:"address_id" db:"address_id"`
	PhoneNumber1     string     `json:"phone_number1" db:"phone_number1"`
	PhoneNumber2     string     `json:"phone_number2" db:"phone_number2"`
	Email            string     `json:"email" db:"email"`

	// Flag counters accumulate reports of bad contact information. Once all
	// counters cross a threshold the voter should be made inactive.
	WrongAddress      int `json:"wrong_address" db:"wrong_address"`
	WrongPhoneNumber1 int `json:"wrong_phone_number1" db:"wrong_phone_number1"`
	WrongPhoneNumber2 int `json:"wrong_phone_number2" db:"wrong_phone_number2"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoterFields is the validated, normalized field set produced by the record
// validator for one import row. Max lengths mirror the storage columns.
type VoterFields struct {
	FirstName        string     `json:"first_name" validate:"required,max=30"`
	LastName         string     `json:"last_name" validate:"required,max=30"`
	DOB              *time.Time `json:"dob,omitempty"`
	Gender           string     `json:"gender" validate:"omitempty,oneof=M F"`
	AffiliationID    *string    `json:"affiliation_id,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	RegistrarID      string     `json:"registrar_id" validate:"max=100"`
	PhoneNumber1     string     `json:"phone_number1" validate:"max=12"`
	PhoneNumber2     string     `json:"phone_number2" validate:"max=12"`
	Email            string     `json:"email" validate:"omitempty,email,max=254"`
}

// VoterDialInfo is a voter row served to a volunteer for phone contact.
type VoterDialInfo struct {
	ID           string `json:"id" db:"id"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	Gender       string `json:"gender" db:"gender"`
	PhoneNumber1 string `json:"phone_number1" db:"phone_number1"`
	PhoneNumber2 string `json:"phone_number2" db:"phone_number2"`
	Street       string `json:"street" db:"street"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
}

// FlagVoterRequest reports a voter's contact field as wrong.
type FlagVoterRequest struct {
	Field FlagField `json:"field" validate:"required,oneof=address phone_number1 phone_number2"`
}

// FlagField identifies which contact field a volunteer reported as wrong.
type FlagField string

const (
	FlagFieldAddress      FlagField = "address"
	FlagFieldPhoneNumber1 FlagField = "phone_number1"
	FlagFieldPhoneNumber2 FlagField = "phone_number2"
)
