package passenger

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field-level messages reported by Validate.
const (
	MsgClassRequired        = "Please select a passenger class"
	MsgClassZero            = "Passenger class cannot be 0"
	MsgSexRequired          = "Please select gender"
	MsgAgeRequired          = "Age is required"
	MsgAgePositive          = "Age must be greater than 0"
	MsgFareRequired         = "Fare is required"
	MsgFareNegative         = "Fare cannot be negative"
	MsgEmbarkedRequired     = "Please select embarkation port"
	MsgFamilySizeRequired   = "Family size is required"
	MsgFamilySizeMin        = "Family size must be at least 1"
	MsgTitleRequired        = "Please select a Title"
	MsgTicketPrefixRequired = "Please select a ticket prefix"
	MsgCabinLetterRequired  = "Please select a cabin letter"
	MsgNotAnOption          = "Please select one of the listed options"
)

// Errors maps a field to its current message. A field is present only while
// it is invalid; an empty map means the record may be submitted.
type Errors map[Field]string

// Has reports whether field currently carries an error.
func (e Errors) Has(field Field) bool {
	_, ok := e[field]
	return ok
}

// Fields returns the invalid fields in form order, followed by any
// non-input keys sorted by name.
func (e Errors) Fields() []Field {
	if len(e) == 0 {
		return nil
	}
	out := make([]Field, 0, len(e))
	seen := make(map[Field]struct{}, len(e))
	for _, field := range InputFields {
		if _, ok := e[field]; ok {
			out = append(out, field)
			seen[field] = struct{}{}
		}
	}
	var rest []Field
	for field := range e {
		if _, ok := seen[field]; !ok {
			rest = append(rest, field)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Validate checks every field of in and returns the messages for the invalid
// ones. It never stops at the first failure and has no side effects.
// Enumeration membership is left to the input surface; see CheckMembership.
func Validate(in Input) Errors {
	errs := Errors{}

	switch class := strings.TrimSpace(in.Class); {
	case class == "":
		errs[FieldClass] = MsgClassRequired
	case class == "0":
		errs[FieldClass] = MsgClassZero
	}

	if blank(in.Sex) {
		errs[FieldSex] = MsgSexRequired
	}

	if blank(in.Age) {
		errs[FieldAge] = MsgAgeRequired
	} else if age, ok := parseDecimal(in.Age); !ok || !age.IsPositive() {
		errs[FieldAge] = MsgAgePositive
	}

	if blank(in.Fare) {
		errs[FieldFare] = MsgFareRequired
	} else if fare, ok := parseDecimal(in.Fare); !ok || fare.IsNegative() {
		errs[FieldFare] = MsgFareNegative
	}

	if blank(in.Embarked) {
		errs[FieldEmbarked] = MsgEmbarkedRequired
	}

	if blank(in.FamilySize) {
		errs[FieldFamilySize] = MsgFamilySizeRequired
	} else if size, ok := ParseFamilySize(in.FamilySize); !ok || size < 1 {
		errs[FieldFamilySize] = MsgFamilySizeMin
	}

	if blank(in.Title) {
		errs[FieldTitle] = MsgTitleRequired
	}
	if blank(in.TicketPrefix) {
		errs[FieldTicketPrefix] = MsgTicketPrefixRequired
	}
	if blank(in.CabinLetter) {
		errs[FieldCabinLetter] = MsgCabinLetterRequired
	}

	return errs
}

// CheckMembership reports set enumerated fields whose value is outside the
// closed option set. Surfaces without a select control (record files, flags)
// run it next to Validate.
func CheckMembership(in Input) Errors {
	errs := Errors{}
	for _, field := range InputFields {
		opts := Options(field)
		if len(opts) == 0 {
			continue
		}
		value, _ := in.Value(field)
		value = strings.TrimSpace(value)
		if value == "" || (field == FieldClass && value == "0") {
			continue
		}
		if !hasOption(opts, value) {
			errs[field] = MsgNotAnOption
		}
	}
	return errs
}

// ParseFamilySize parses a family size as a base-10 integer. Values beyond
// the int range saturate at the nearest bound.
func ParseFamilySize(raw string) (int, bool) {
	size, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return size, true
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func hasOption(opts []Option, value string) bool {
	for _, opt := range opts {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
