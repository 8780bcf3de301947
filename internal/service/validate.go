package service

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	maxNameLength     = 254
	maxSeatCodeLength = 8
	// MinBulkSeats is the smallest batch accepted by BulkPriceSeats.
	MinBulkSeats = 2
	// MaxReservationSeats is the largest batch accepted by ReserveSeats.
	MaxReservationSeats = 10
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

// StadiumInput is the body of a create-stadium request.
type StadiumInput struct {
	Name string `json:"name"`
}

// ValidateStadium trims and checks a stadium name.
func ValidateStadium(in StadiumInput) (StadiumInput, error) {
	name, err := requiredName("name", in.Name, maxNameLength)
	if err != nil {
		return StadiumInput{}, err
	}
	return StadiumInput{Name: name}, nil
}

// SeatInput is the body of a create-seat request.  StadiumID comes from
// the path.
type SeatInput struct {
	StadiumID uint64 `json:"-"`
	Code      string `json:"code"`
}

// ValidateSeat trims and checks a seat code.
func ValidateSeat(in SeatInput) (SeatInput, error) {
	var errs ValidationErrors
	if in.StadiumID == 0 {
		errs = append(errs, invalid(CodeRequired, "stadium", msgRequired))
	}
	code, cerr := requiredName("code", in.Code, maxSeatCodeLength)
	if cerr != nil {
		errs = append(errs, cerr)
	}
	if err := errs.orNil(); err != nil {
		return SeatInput{}, err
	}
	return SeatInput{StadiumID: in.StadiumID, Code: code}, nil
}

// TeamInput is the body of a create-team request.
type TeamInput struct {
	Name string `json:"name"`
}

// ValidateTeam trims and checks a team name.
func ValidateTeam(in TeamInput) (TeamInput, error) {
	name, err := requiredName("name", in.Name, maxNameLength)
	if err != nil {
		return TeamInput{}, err
	}
	return TeamInput{Name: name}, nil
}

// MatchInput is the body of a create-match request.
type MatchInput struct {
	StadiumID   uint64    `json:"stadium"`
	HostTeamID  uint64    `json:"host_team"`
	GuestTeamID uint64    `json:"guest_team"`
	Datetime    time.Time `json:"datetime"`
}

// ValidateMatch checks that every field is present and that the two
// teams differ.  The datetime is normalized to UTC.
func ValidateMatch(in MatchInput) (MatchInput, error) {
	var errs ValidationErrors
	if in.StadiumID == 0 {
		errs = append(errs, invalid(CodeRequired, "stadium", msgRequired))
	}
	if in.HostTeamID == 0 {
		errs = append(errs, invalid(CodeRequired, "host_team", msgRequired))
	}
	if in.GuestTeamID == 0 {
		errs = append(errs, invalid(CodeRequired, "guest_team", msgRequired))
	}
	if in.Datetime.IsZero() {
		errs = append(errs, invalid(CodeRequired, "datetime", msgRequired))
	}
	if err := errs.orNil(); err != nil {
		return MatchInput{}, err
	}
	if in.HostTeamID == in.GuestTeamID {
		return MatchInput{}, invalid(CodeSameTeam, NonFieldErrors, "Both teams can't be same")
	}
	in.Datetime = in.Datetime.UTC()
	return in, nil
}

// matchDatetimeLayouts are the accepted datetime formats.  Values
// without a zone are read as UTC.
var matchDatetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseMatchDatetime parses the datetime field of a create-match request.
// An empty value yields the zero time so ValidateMatch reports it as
// required.
func ParseMatchDatetime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range matchDatetimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(CodeInvalid, "datetime",
		"Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z].")
}

// SeatPriceInput is the body of a single seat pricing request.
type SeatPriceInput struct {
	MatchID uint64 `json:"match"`
	SeatID  uint64 `json:"seat"`
	Price   *int64 `json:"price"`
}

// SeatPrice is a validated SeatPriceInput.
type SeatPrice struct {
	MatchID uint64
	SeatID  uint64
	Price   uint64
}

// ValidateSeatPrice checks a single seat pricing request.
func ValidateSeatPrice(in SeatPriceInput) (SeatPrice, error) {
	var errs ValidationErrors
	if in.MatchID == 0 {
		errs = append(errs, invalid(CodeRequired, "match", msgRequired))
	}
	if in.SeatID == 0 {
		errs = append(errs, invalid(CodeRequired, "seat", msgRequired))
	}
	price, perr := validatePrice(in.Price)
	if perr != nil {
		errs = append(errs, perr)
	}
	if err := errs.orNil(); err != nil {
		return SeatPrice{}, err
	}
	return SeatPrice{MatchID: in.MatchID, SeatID: in.SeatID, Price: price}, nil
}

// BulkPriceInput is the body of a bulk seat pricing request.
type BulkPriceInput struct {
	MatchID uint64   `json:"match"`
	Seats   []uint64 `json:"seats"`
	Price   *int64   `json:"price"`
}

// BulkPrice is a validated BulkPriceInput.
type BulkPrice struct {
	MatchID uint64
	SeatIDs []uint64
	Price   uint64
}

// ValidateBulkPrice checks a bulk pricing request: at least two unique
// seat ids and a non-negative price.
func ValidateBulkPrice(in BulkPriceInput) (BulkPrice, error) {
	var errs ValidationErrors
	if in.MatchID == 0 {
		errs = append(errs, invalid(CodeRequired, "match", msgRequired))
	}
	if serr := validateSeatIDs(in.Seats, MinBulkSeats, 0); serr != nil {
		errs = append(errs, serr)
	}
	price, perr := validatePrice(in.Price)
	if perr != nil {
		errs = append(errs, perr)
	}
	if err := errs.orNil(); err != nil {
		return BulkPrice{}, err
	}
	return BulkPrice{MatchID: in.MatchID, SeatIDs: in.Seats, Price: price}, nil
}

// SeatsInput is the body of reservation and payment requests.  The match
// comes from the path.
type SeatsInput struct {
	Seats []uint64 `json:"seats"`
}

// ValidateReservation checks that 1 to 10 unique seat ids were sent.
func ValidateReservation(in SeatsInput) ([]uint64, error) {
	if err := validateSeatIDs(in.Seats, 1, MaxReservationSeats); err != nil {
		return nil, err
	}
	return in.Seats, nil
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// NormalizeEmail trims the address and lower-cases its domain part.  The
// local part is kept as typed since mail servers may treat it as case
// sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// ValidateRegistration normalizes the email and checks that both
// passwords were given and match.
func ValidateRegistration(in RegisterInput) (RegisterInput, error) {
	var errs ValidationErrors
	email := NormalizeEmail(in.Email)
	switch {
	case email == "":
		errs = append(errs, invalid(CodeRequired, "email", msgRequired))
	case len(email) > maxNameLength:
		errs = append(errs, invalid(CodeInvalid, "email", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength)))
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs = append(errs, invalid(CodeInvalid, "email", "Enter a valid email address."))
		}
	}
	if in.Password == "" {
		errs = append(errs, invalid(CodeRequired, "password", msgRequired))
	}
	if in.ConfirmPassword == "" {
		errs = append(errs, invalid(CodeRequired, "confirm_password", msgRequired))
	}
	if err := errs.orNil(); err != nil {
		return RegisterInput{}, err
	}
	if in.Password != in.ConfirmPassword {
		return RegisterInput{}, invalid(CodePasswordMismatch, NonFieldErrors, "The two password fields didn’t match.")
	}
	return RegisterInput{Email: email, Password: in.Password, ConfirmPassword: in.ConfirmPassword}, nil
}

func requiredName(field, raw string, max int) (string, *ValidationError) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", invalid(CodeRequired, field, msgBlank)
	}
	if len([]rune(v)) > max {
		return "", invalid(CodeInvalid, field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
	return v, nil
}

func validatePrice(p *int64) (uint64, *ValidationError) {
	if p == nil {
		return 0, invalid(CodeRequired, "price", msgRequired)
	}
	if *p < 0 {
		return 0, invalid(CodeInvalid, "price", "Ensure this value is greater than or equal to 0.")
	}
	return uint64(*p), nil
}

// validateSeatIDs enforces length bounds (max 0 means unbounded), rejects
// zero ids and duplicates.
func validateSeatIDs(ids []uint64, min, max int) *ValidationError {
	if ids == nil {
		return invalid(CodeRequired, "seats", msgRequired)
	}
	if len(ids) < min {
		return invalid(CodeInvalid, "seats", fmt.Sprintf("Ensure this field has at least %d elements.", min))
	}
	if max > 0 && len(ids) > max {
		return invalid(CodeInvalid, "seats", fmt.Sprintf("Ensure this field has no more than %d elements.", max))
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return invalid(CodeInvalid, "seats", "Seat ids must be positive integers.")
		}
		if _, dup := seen[id]; dup {
			return invalid(CodeInvalid, "seats", fmt.Sprintf("Seat %d is listed more than once.", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}
