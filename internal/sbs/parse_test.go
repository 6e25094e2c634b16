package sbs

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsb-labs/sbsship/internal/domain"
)

func fixedClock() func() time.Time {
	at := time.Unix(1704110400, 0)
	return func() time.Time { return at }
}

func TestParseAirbornePosition(t *testing.T) {
	p := NewParser(Options{}).WithClock(fixedClock())

	line := "MSG,3,1,1,4CA2D1,1,2024-01-01,12:00:00,2024-01-01,12:00:00,,,38000,,,51.5,-0.1,,,,,0"
	msg, err := p.Parse(line)
	require.NoError(t, err)

	assert.Equal(t, "MSG", msg.MessageType)
	assert.Equal(t, domain.TransmissionESAirbornePos, msg.TransmissionType)
	assert.Equal(t, "4CA2D1", msg.HexIdent)

	require.NotNil(t, msg.Altitude)
	assert.Equal(t, 38000, *msg.Altitude)
	require.NotNil(t, msg.Lat)
	assert.Equal(t, 51.5, *msg.Lat)
	require.NotNil(t, msg.Lon)
	assert.Equal(t, -0.1, *msg.Lon)

	assert.Nil(t, msg.GroundSpeed)
	assert.Nil(t, msg.Track)
	assert.Nil(t, msg.VerticalRate)
	assert.Nil(t, msg.Callsign)
	assert.Nil(t, msg.Squawk)

	require.NotNil(t, msg.GeneratedDate)
	assert.Equal(t, "2024-01-01", *msg.GeneratedDate)
	require.NotNil(t, msg.GeneratedTime)
	assert.Equal(t, "12:00:00", *msg.GeneratedTime)

	require.NotNil(t, msg.SPI)
	assert.False(t, *msg.SPI)
	assert.Nil(t, msg.OnGround)
}

func TestParsePreservesIdentCase(t *testing.T) {
	p := NewParser(Options{})

	for _, ident := range []string{"4CA2D1", "4ca2d1", "AbC123"} {
		msg, err := p.Parse("MSG,4,1,1," + ident)
		require.NoError(t, err)
		assert.Equal(t, ident, msg.HexIdent)
	}
}

// eventLine builds a full 23-field MSG line with the given positional
// overrides, so tests never miscount commas.
func eventLine(overrides map[int]string) string {
	parts := make([]string, fieldOnGround+1)
	parts[fieldKeyword] = "MSG"
	parts[fieldTransmissionType] = "4"
	parts[fieldSessionID] = "1"
	parts[fieldAircraftID] = "1"
	parts[fieldHexIdent] = "4CA2D1"
	for pos, v := range overrides {
		parts[pos] = v
	}
	return strings.Join(parts, ",")
}

func TestParseGenericVelocity(t *testing.T) {
	p := NewParser(Options{})

	msg, err := p.Parse(eventLine(map[int]string{
		fieldHexIdent:     "4D0131",
		fieldGroundSpeed:  "425.0",
		fieldTrack:        "284.9",
		fieldVerticalRate: "-1088",
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.TransmissionESAirborneVel, msg.TransmissionType)
	assert.Equal(t, "4D0131", msg.HexIdent)
	require.NotNil(t, msg.GroundSpeed)
	assert.Equal(t, 425.0, *msg.GroundSpeed)
	require.NotNil(t, msg.Track)
	assert.Equal(t, 284.9, *msg.Track)
	require.NotNil(t, msg.VerticalRate)
	assert.Equal(t, -1088, *msg.VerticalRate)
	assert.Nil(t, msg.Lat)
	assert.Nil(t, msg.Lon)
	assert.Nil(t, msg.Altitude)
}

func TestParseNotAnEvent(t *testing.T) {
	p := NewParser(Options{})

	for _, line := range []string{
		"",
		"   ",
		"STA,,5,211,4D0131,10057",
		"AIR,,5,211,4D0131",
		"garbage line with no commas",
	} {
		_, err := p.Parse(line)
		assert.ErrorIs(t, err, domain.ErrNotAnEvent, "line %q", line)
	}
}

func TestParseUnknownKind(t *testing.T) {
	p := NewParser(Options{})

	for _, line := range []string{
		"MSG,0,1,1,4CA2D1",
		"MSG,9,1,1,4CA2D1",
		"MSG,x,1,1,4CA2D1",
		"MSG,,1,1,4CA2D1",
	} {
		_, err := p.Parse(line)
		assert.ErrorIs(t, err, domain.ErrUnknownKind, "line %q", line)
	}
}

func TestParseTruncated(t *testing.T) {
	p := NewParser(Options{})

	for _, line := range []string{
		"MSG",
		"MSG,4,1,1",
		// Type 3 needs the position fields, not just the ident.
		"MSG,3,1,1,4CA2D1",
		"MSG,3,1,1,4CA2D1,1,2024-01-01,12:00:00,2024-01-01,12:00:00,,,38000",
	} {
		_, err := p.Parse(line)
		assert.ErrorIs(t, err, domain.ErrTruncated, "line %q", line)
	}
}

func TestParseMissingIdent(t *testing.T) {
	p := NewParser(Options{})

	for _, line := range []string{
		"MSG,4,1,1,",
		"MSG,4,1,1,   ,10057",
	} {
		_, err := p.Parse(line)
		assert.ErrorIs(t, err, domain.ErrMissingIdent, "line %q", line)
	}
}

func TestParseLenientFieldPolicy(t *testing.T) {
	p := NewParser(Options{})

	// Corrupt altitude slot: record survives with altitude absent.
	msg, err := p.Parse("MSG,3,1,1,4CA2D1,1,2024-01-01,12:00:00,2024-01-01,12:00:00,,,garbage,,,51.5,-0.1")
	require.NoError(t, err)
	assert.Nil(t, msg.Altitude)
	require.NotNil(t, msg.Lat)
	assert.Equal(t, 51.5, *msg.Lat)
}

func TestParseStrictFieldPolicy(t *testing.T) {
	p := NewParser(Options{StrictFields: true})

	_, err := p.Parse("MSG,3,1,1,4CA2D1,1,2024-01-01,12:00:00,2024-01-01,12:00:00,,,garbage,,,51.5,-0.1")
	assert.ErrorIs(t, err, domain.ErrMalformedField)
}

func TestParseFlags(t *testing.T) {
	p := NewParser(Options{})

	msg, err := p.Parse(eventLine(map[int]string{
		fieldSquawk:    "7700",
		fieldAlert:     "1",
		fieldEmergency: "0",
		fieldSPI:       "garbage",
		fieldOnGround:  "1",
	}))
	require.NoError(t, err)

	require.NotNil(t, msg.Alert)
	assert.True(t, *msg.Alert)
	require.NotNil(t, msg.Emergency)
	assert.False(t, *msg.Emergency)
	// Unparseable flag tokens are absent, not false.
	assert.Nil(t, msg.SPI)
	require.NotNil(t, msg.OnGround)
	assert.True(t, *msg.OnGround)

	require.NotNil(t, msg.Squawk)
	assert.Equal(t, "7700", *msg.Squawk)
}

func TestParseDeterministic(t *testing.T) {
	p := NewParser(Options{}).WithClock(fixedClock())

	line := "MSG,3,1,1,4CA2D1,1,2024-01-01,12:00:00,2024-01-01,12:00:00,,,38000,,,51.5,-0.1,,,,,0"
	a, err := p.Parse(line)
	require.NoError(t, err)
	b, err := p.Parse(line)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "1704110400000000000", a.Timestamp)
}

func TestParseNeverPanicsOnShortLines(t *testing.T) {
	p := NewParser(Options{})

	for _, line := range []string{"MSG,3", "MSG,", "MSG,3,", ",,,,,,,,"} {
		_, err := p.Parse(line)
		assert.True(t, errors.Is(err, domain.ErrTruncated) ||
			errors.Is(err, domain.ErrUnknownKind) ||
			errors.Is(err, domain.ErrNotAnEvent), "line %q: %v", line, err)
	}
}
