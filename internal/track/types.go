// Package track holds the retail operations domain: store accounts and the
// three record kinds they log (equipment temperatures, cash tips, out-of-stock
// items). Every record is owned by exactly one store; the owning store id is
// always taken from the verified identity, never from client input.
package track

import (
	"errors"
	"fmt"
	"time"
)

// EquipmentType enumerates the equipment a temperature can be logged for.
type EquipmentType string

const (
	EquipmentIceCreamMachine     EquipmentType = "Ice Cream Machine"
	EquipmentWalkingRefrigerator EquipmentType = "Walking Refrigerator"
	EquipmentWalkingFreezer      EquipmentType = "Walking Freezer"
	EquipmentChillBar            EquipmentType = "Chill Bar"
	EquipmentCakeDisplayFreezer  EquipmentType = "Cake Display Freezer"
)

// EquipmentTypes lists the accepted equipment enumeration.
var EquipmentTypes = []EquipmentType{
	EquipmentIceCreamMachine,
	EquipmentWalkingRefrigerator,
	EquipmentWalkingFreezer,
	EquipmentChillBar,
	EquipmentCakeDisplayFreezer,
}

// Valid reports whether the equipment type is part of the enumeration.
func (e EquipmentType) Valid() bool {
	for _, t := range EquipmentTypes {
		if e == t {
			return true
		}
	}
	return false
}

// Hopper designates the side of an ice cream machine.
type Hopper string

const (
	HopperA Hopper = "A"
	HopperB Hopper = "B"
)

// Valid reports whether the hopper designator is A or B.
func (h Hopper) Valid() bool { return h == HopperA || h == HopperB }

// Out-of-stock item status. Single one-way transition: outstanding to
// restocked.
const (
	StatusOutstanding = "outstanding"
	StatusRestocked   = "restocked"
)

// Store is a registered store account. Immutable after registration.
type Store struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Temperature is a logged equipment temperature reading.
type Temperature struct {
	ID            string        `json:"id"`
	StoreID       string        `json:"store_id"`
	EquipmentType EquipmentType `json:"equipment_type"`
	MachineID     int           `json:"machine_id"`
	Hopper        Hopper        `json:"hopper,omitempty"`
	Temperature   float64       `json:"temperature"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// Tip is a logged cash tip amount.
type Tip struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	Amount     float64   `json:"amount"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OutOfStockItem is a logged out-of-stock item.
type OutOfStockItem struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	ItemName   string    `json:"item_name"`
	Quantity   int       `json:"quantity,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

var (
	ErrNotFound           = errors.New("track: not found")
	ErrDuplicateUsername  = errors.New("track: username already exists")
	ErrInvalidCredentials = errors.New("track: invalid credentials")
	ErrValidation         = errors.New("track: validation failed")
	ErrAlreadyRestocked   = errors.New("track: item already restocked")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RegisterParams are the inputs for store registration.
type RegisterParams struct {
	Name     string
	Location string
	Username string
	Password string
}

// Validate checks registration inputs before any state is touched.
func (p RegisterParams) Validate() error {
	if p.Name == "" {
		return validationError("name is required")
	}
	if p.Location == "" {
		return validationError("location is required")
	}
	if p.Username == "" {
		return validationError("username is required")
	}
	if len(p.Password) < 8 {
		return validationError("password must be at least 8 characters")
	}
	return nil
}

// TemperatureInput is the client-supplied portion of a temperature record.
type TemperatureInput struct {
	EquipmentType EquipmentType
	MachineID     int
	Hopper        Hopper
	Temperature   float64
}

// Validate enforces the temperature schema. The hopper designator is required
// exactly when the equipment is an ice cream machine; on any other equipment a
// supplied hopper is rejected. The temperature value itself is accepted as-is:
// flagging implausible readings is a presentation concern.
func (in TemperatureInput) Validate() error {
	if !in.EquipmentType.Valid() {
		return validationError("equipment_type %q is not recognized", string(in.EquipmentType))
	}
	if in.MachineID < 1 {
		return validationError("machine_id must be a positive integer")
	}
	if in.EquipmentType == EquipmentIceCreamMachine {
		if in.Hopper == "" {
			return validationError("hopper is required for %s", EquipmentIceCreamMachine)
		}
		if !in.Hopper.Valid() {
			return validationError("hopper must be A or B")
		}
		return nil
	}
	if in.Hopper != "" {
		return validationError("hopper is only valid for %s", EquipmentIceCreamMachine)
	}
	return nil
}

// TipInput is the client-supplied portion of a tip record.
type TipInput struct {
	Amount float64
	Notes  string
}

// Validate enforces the tip schema.
func (in TipInput) Validate() error {
	if in.Amount < 0 {
		return validationError("amount must not be negative")
	}
	return nil
}

// OutOfStockInput is the client-supplied portion of an out-of-stock record.
type OutOfStockInput struct {
	ItemName string
	Quantity int
	Notes    string
}

// Validate enforces the out-of-stock schema.
func (in OutOfStockInput) Validate() error {
	if in.ItemName == "" {
		return validationError("item_name is required")
	}
	if in.Quantity < 0 {
		return validationError("quantity must not be negative")
	}
	return nil
}

// RangeFilter is an inclusive date range. Either bound may be zero, in which
// case it imposes no constraint.
type RangeFilter struct {
	From time.Time
	To   time.Time
}

// Matches reports whether ts falls inside the range, inclusive on both ends.
func (f RangeFilter) Matches(ts time.Time) bool {
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

// TemperatureFilter narrows a temperature query. Exact-match fields are ANDed
// together with the date range; zero values impose no constraint. The owning
// store is always filtered implicitly and cannot be expressed here.
type TemperatureFilter struct {
	EquipmentType EquipmentType
	MachineID     int
	Hopper        Hopper
	Range         RangeFilter
}

// Matches reports whether the record satisfies every set filter field.
func (f TemperatureFilter) Matches(rec Temperature) bool {
	if f.EquipmentType != "" && rec.EquipmentType != f.EquipmentType {
		return false
	}
	if f.MachineID != 0 && rec.MachineID != f.MachineID {
		return false
	}
	if f.Hopper != "" && rec.Hopper != f.Hopper {
		return false
	}
	return f.Range.Matches(rec.RecordedAt)
}
