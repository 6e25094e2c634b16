package domain

// Transmission types carried in the second field of an SBS-1 MSG line.
const (
	TransmissionESIdent       = 1 // ES identification and category
	TransmissionESSurfacePos  = 2 // ES surface position
	TransmissionESAirbornePos = 3 // ES airborne position (altitude, lat, lon)
	TransmissionESAirborneVel = 4 // ES airborne velocity
	TransmissionSurveilAlt    = 5 // surveillance altitude
	TransmissionSurveilID     = 6 // surveillance identity (squawk)
	TransmissionAirToAir      = 7 // air-to-air
	TransmissionAllCallReply  = 8 // all-call reply
)

// KnownTransmissionType reports whether t is a transmission type defined
// by the BaseStation protocol.
func KnownTransmissionType(t int) bool {
	return t >= TransmissionESIdent && t <= TransmissionAllCallReply
}

// Message is a single parsed SBS-1 surveillance event.
//
// Only the transmission type and the aircraft hex ident are guaranteed to be
// present; everything else varies by transmission type. Optional fields are
// pointers so that "not reported" is distinguishable from a zero value and
// is omitted from the serialized form entirely. A Message is never mutated
// after the parser returns it.
type Message struct {
	// Timestamp is nanoseconds since the Unix epoch, as a decimal string,
	// assigned when the line was parsed.
	Timestamp string `json:"timestamp"`

	// MessageType is the record keyword, always "MSG" for event lines.
	MessageType string `json:"message_type"`

	// TransmissionType is one of the Transmission* constants.
	TransmissionType int `json:"transmission_type"`

	// HexIdent is the 24-bit ICAO aircraft address as a hex string.
	// It identifies an aircraft for the life of one broadcast session.
	HexIdent string `json:"icao24"`

	SessionID  *string `json:"session_id,omitempty"`
	AircraftID *string `json:"aircraft_id,omitempty"`
	FlightID   *string `json:"flight_id,omitempty"`

	// Generated/logged date and time pairs are carried exactly as the feed
	// reported them. Ordering is trusted, not enforced.
	GeneratedDate *string `json:"generated_date,omitempty"`
	GeneratedTime *string `json:"generated_time,omitempty"`
	LoggedDate    *string `json:"logged_date,omitempty"`
	LoggedTime    *string `json:"logged_time,omitempty"`

	Callsign     *string  `json:"callsign,omitempty"`
	Registration *string  `json:"registration,omitempty"`
	Altitude     *int     `json:"altitude,omitempty"`
	GroundSpeed  *float64 `json:"ground_speed,omitempty"`
	Track        *float64 `json:"track,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	VerticalRate *int     `json:"vertical_rate,omitempty"`

	// Squawk keeps its leading zeros, so it is a string rather than a number.
	Squawk *string `json:"squawk,omitempty"`

	Alert     *bool `json:"alert,omitempty"`
	Emergency *bool `json:"emergency,omitempty"`
	SPI       *bool `json:"spi,omitempty"`
	OnGround  *bool `json:"on_ground,omitempty"`
}
