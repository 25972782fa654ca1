// Package hl7 implements delimiter discovery and structural parsing for
// HL7 v2.x messages, plus ACK/NACK construction.
package hl7

import "time"

// Default HL7 v2.x delimiters, used when a message is too short to carry
// its own encoding characters.
const (
	DefaultFieldSeparator  = '|'
	DefaultComponentSep    = '^'
	DefaultRepetitionSep   = '~'
	DefaultEscapeChar      = '\\'
	DefaultSubcomponentSep = '&'
)

// Delimiters holds the five single-character separators discovered from
// the first eight bytes of a raw MSH segment.
type Delimiters struct {
	Field        byte
	Component    byte
	Repetition   byte
	Escape       byte
	Subcomponent byte
}

// DefaultDelimiters returns the standard HL7 v2.x delimiter set.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Field:        DefaultFieldSeparator,
		Component:    DefaultComponentSep,
		Repetition:   DefaultRepetitionSep,
		Escape:       DefaultEscapeChar,
		Subcomponent: DefaultSubcomponentSep,
	}
}

// Field is a single HL7 field: its 1-based HL7 position, the raw value,
// and the value split on the component delimiter.
type Field struct {
	Index      int
	Value      string
	Components []string
}

// Segment is a parsed HL7 segment: its three-character name, its ordered
// fields, and the original raw segment text.
type Segment struct {
	Name   string
	Fields []Field
	Raw    string
}

// Field returns the field at the given 1-based HL7 index, or false if no
// such field was present in the segment.
func (s Segment) Field(index int) (Field, bool) {
	for _, f := range s.Fields {
		if f.Index == index {
			return f, true
		}
	}
	return Field{}, false
}

// FieldValue returns the raw value of the field at the given index, or
// the empty string if absent.
func (s Segment) FieldValue(index int) string {
	f, ok := s.Field(index)
	if !ok {
		return ""
	}
	return f.Value
}

// Message is an immutable, fully-parsed HL7 v2.x message.
type Message struct {
	ID         string
	ReceivedAt time.Time
	SourceAddr string
	Raw        string

	MessageType         string
	TriggerEvent        string
	MessageControlID    string
	SendingApplication  string
	SendingFacility     string
	ReceivingApplication string
	ReceivingFacility   string
	Version             string

	PatientID   string
	PatientName string

	Segments []Segment

	// ParseError is reserved for messages stored despite a partial parse
	// failure. The default parser never populates it on a successful
	// Parse; messages that fail to parse are not stored at all.
	ParseError string
}

// Segment returns the first segment with the given name, if present.
func (m *Message) Segment(name string) (Segment, bool) {
	for _, s := range m.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return Segment{}, false
}

// Summary is a value-copy projection of Message used for list, search,
// and broadcast payloads. It omits the raw payload and segment list.
type Summary struct {
	ID                  string    `json:"id"`
	ReceivedAt          time.Time `json:"received_at"`
	SourceAddr          string    `json:"source_addr"`
	MessageType         string    `json:"message_type"`
	TriggerEvent        string    `json:"trigger_event"`
	MessageControlID    string    `json:"message_control_id"`
	SendingApplication  string    `json:"sending_application"`
	SendingFacility     string    `json:"sending_facility"`
	ReceivingApplication string   `json:"receiving_application"`
	ReceivingFacility   string    `json:"receiving_facility"`
	Version             string   `json:"version"`
	PatientID            string  `json:"patient_id,omitempty"`
	PatientName          string  `json:"patient_name,omitempty"`
	SegmentCount         int     `json:"segment_count"`
	ParseError           string  `json:"parse_error,omitempty"`
}

// Summarize projects a Message into its lightweight Summary.
func Summarize(m *Message) Summary {
	return Summary{
		ID:                   m.ID,
		ReceivedAt:           m.ReceivedAt,
		SourceAddr:           m.SourceAddr,
		MessageType:          m.MessageType,
		TriggerEvent:         m.TriggerEvent,
		MessageControlID:     m.MessageControlID,
		SendingApplication:   m.SendingApplication,
		SendingFacility:      m.SendingFacility,
		ReceivingApplication: m.ReceivingApplication,
		ReceivingFacility:    m.ReceivingFacility,
		Version:              m.Version,
		PatientID:            m.PatientID,
		PatientName:          m.PatientName,
		SegmentCount:         len(m.Segments),
		ParseError:           m.ParseError,
	}
}

// RawLen returns the byte length of the message's raw payload, used by
// the store for its byte-size accounting.
func (m *Message) RawLen() int {
	return len(m.Raw)
}
