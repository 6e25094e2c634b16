// Package sbs parses BaseStation (SBS-1) event lines into domain messages.
//
// An SBS-1 line is comma-delimited with fixed field positions and optional
// trailing fields. Parsing is pure: no I/O, no shared state, and identical
// input always yields an identical result for a fixed clock.
package sbs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adsb-labs/sbsship/internal/domain"
)

// Field positions in an SBS-1 MSG line.
const (
	fieldKeyword = iota
	fieldTransmissionType
	fieldSessionID
	fieldAircraftID
	fieldHexIdent
	fieldFlightID
	fieldGeneratedDate
	fieldGeneratedTime
	fieldLoggedDate
	fieldLoggedTime
	fieldCallsign
	fieldRegistration
	fieldAltitude
	fieldGroundSpeed
	fieldTrack
	fieldLat
	fieldLon
	fieldVerticalRate
	fieldSquawk
	fieldAlert
	fieldEmergency
	fieldSPI
	fieldOnGround
)

// eventKeyword identifies a line as an event record. Lines with any other
// keyword (STA, AIR, SEL, blank lines, noise) are not events.
const eventKeyword = "MSG"

// Minimum field counts per declared transmission type. Every event line must
// at least reach the hex ident; airborne position reports must reach the
// longitude slot.
const (
	minFieldsEvent       = fieldHexIdent + 1
	minFieldsAirbornePos = fieldLon + 1
)

// Options configures parsing policy.
type Options struct {
	// StrictFields discards the whole record when a non-empty numeric field
	// slot fails conversion. The default (false) treats the malformed field
	// as absent and keeps the rest of the record, because one corrupt field
	// should not discard an otherwise usable event.
	StrictFields bool
}

// Parser converts raw feed lines into domain messages.
// The zero value is not usable; call NewParser.
type Parser struct {
	opts Options
	now  func() time.Time
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts, now: time.Now}
}

// WithClock returns a copy of the parser using the given clock for message
// timestamps. Used by tests to make output deterministic.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// Parse converts one feed line into a Message.
//
// Failures are classified, never fatal: ErrNotAnEvent for non-MSG lines,
// ErrUnknownKind for undefined transmission types, ErrTruncated for lines
// shorter than the minimum for their kind, ErrMissingIdent for an empty hex
// ident. Optional fields parse independently; an empty slot is absent, and a
// malformed slot follows the Options.StrictFields policy.
func (p *Parser) Parse(line string) (*domain.Message, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")

	if strings.TrimSpace(parts[fieldKeyword]) != eventKeyword {
		return nil, domain.ErrNotAnEvent
	}
	if len(parts) < fieldTransmissionType+1 {
		return nil, fmt.Errorf("%w: %d fields", domain.ErrTruncated, len(parts))
	}

	ttype, err := strconv.Atoi(strings.TrimSpace(parts[fieldTransmissionType]))
	if err != nil || !domain.KnownTransmissionType(ttype) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, parts[fieldTransmissionType])
	}

	min := minFieldsEvent
	if ttype == domain.TransmissionESAirbornePos {
		min = minFieldsAirbornePos
	}
	if len(parts) < min {
		return nil, fmt.Errorf("%w: %d fields, need %d for type %d", domain.ErrTruncated, len(parts), min, ttype)
	}

	hex := strings.TrimSpace(parts[fieldHexIdent])
	if hex == "" {
		return nil, domain.ErrMissingIdent
	}

	msg := &domain.Message{
		Timestamp:        strconv.FormatInt(p.now().UnixNano(), 10),
		MessageType:      eventKeyword,
		TransmissionType: ttype,
		HexIdent:         hex,

		SessionID:     optString(parts, fieldSessionID),
		AircraftID:    optString(parts, fieldAircraftID),
		FlightID:      optString(parts, fieldFlightID),
		GeneratedDate: optString(parts, fieldGeneratedDate),
		GeneratedTime: optString(parts, fieldGeneratedTime),
		LoggedDate:    optString(parts, fieldLoggedDate),
		LoggedTime:    optString(parts, fieldLoggedTime),
		Callsign:      optString(parts, fieldCallsign),
		Registration:  optString(parts, fieldRegistration),
		Squawk:        optString(parts, fieldSquawk),

		Alert:     optFlag(parts, fieldAlert),
		Emergency: optFlag(parts, fieldEmergency),
		SPI:       optFlag(parts, fieldSPI),
		OnGround:  optFlag(parts, fieldOnGround),
	}

	for _, f := range []struct {
		pos int
		dst **int
	}{
		{fieldAltitude, &msg.Altitude},
		{fieldVerticalRate, &msg.VerticalRate},
	} {
		v, err := optInt(parts, f.pos)
		if err != nil {
			if p.opts.StrictFields {
				return nil, err
			}
			continue
		}
		*f.dst = v
	}

	for _, f := range []struct {
		pos int
		dst **float64
	}{
		{fieldGroundSpeed, &msg.GroundSpeed},
		{fieldTrack, &msg.Track},
		{fieldLat, &msg.Lat},
		{fieldLon, &msg.Lon},
	} {
		v, err := optFloat(parts, f.pos)
		if err != nil {
			if p.opts.StrictFields {
				return nil, err
			}
			continue
		}
		*f.dst = v
	}

	return msg, nil
}

// field returns the trimmed field at pos, or "" when the slot is missing.
func field(parts []string, pos int) string {
	if pos >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[pos])
}

// optString returns the field at pos, or nil when empty or missing.
func optString(parts []string, pos int) *string {
	s := field(parts, pos)
	if s == "" {
		return nil
	}
	return &s
}

// optInt parses the field at pos as an integer. An empty or missing slot is
// absent (nil, nil); a non-empty slot that fails conversion is a field-level
// error for the caller's policy to resolve.
func optInt(parts []string, pos int) (*int, error) {
	s := field(parts, pos)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: position %d: %q", domain.ErrMalformedField, pos, s)
	}
	return &v, nil
}

// optFloat parses the field at pos as a float. Same absence and error
// semantics as optInt.
func optFloat(parts []string, pos int) (*float64, error) {
	s := field(parts, pos)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: position %d: %q", domain.ErrMalformedField, pos, s)
	}
	return &v, nil
}

// optFlag parses the field at pos as a tri-state flag: "1" is true, "0" is
// false, anything else (including garbage tokens) is absent.
func optFlag(parts []string, pos int) *bool {
	switch field(parts, pos) {
	case "1":
		v := true
		return &v
	case "0":
		v := false
		return &v
	default:
		return nil
	}
}
