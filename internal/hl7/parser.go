package hl7

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Parse decodes a raw HL7 v2.x message into a structured Message.
//
// raw is expected to already be lossy-UTF8 decoded text (the MLLP framer
// is responsible for that decode); Parse performs no I/O, and apart from the
// freshly generated ID and ReceivedAt timestamp its result is a
// deterministic function of its input.
func Parse(raw string, sourceAddr string) (*Message, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty message")
	}
	if !strings.HasPrefix(trimmed, "MSH") {
		return nil, fmt.Errorf("does not start with MSH")
	}
	if len(trimmed) < 8 {
		return nil, fmt.Errorf("MSH too short")
	}

	delims := discoverDelimiters(trimmed)

	segStrs := splitSegments(trimmed)
	if len(segStrs) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	segments := make([]Segment, 0, len(segStrs))
	for _, s := range segStrs {
		segments = append(segments, parseSegment(s, delims))
	}

	msg := &Message{
		ID:         uuid.New().String(),
		ReceivedAt: time.Now().UTC(),
		SourceAddr: sourceAddr,
		Raw:        raw,
		Segments:   segments,
	}

	msh := segments[0]
	msg.SendingApplication = msh.FieldValue(3)
	msg.SendingFacility = msh.FieldValue(4)
	msg.ReceivingApplication = msh.FieldValue(5)
	msg.ReceivingFacility = msh.FieldValue(6)
	msg.MessageControlID = msh.FieldValue(10)
	msg.Version = msh.FieldValue(12)

	if f9, ok := msh.Field(9); ok {
		switch len(f9.Components) {
		case 0:
		case 1:
			msg.MessageType = f9.Components[0]
		default:
			msg.MessageType = f9.Components[0] + "^" + f9.Components[1]
			msg.TriggerEvent = f9.Components[1]
		}
	}

	if pid, ok := msg.Segment("PID"); ok {
		if pid3 := pid.FieldValue(3); pid3 != "" {
			if f, ok := pid.Field(3); ok && len(f.Components) > 0 {
				msg.PatientID = f.Components[0]
			} else {
				msg.PatientID = pid3
			}
		}
		if f5, ok := pid.Field(5); ok {
			msg.PatientName = formatPatientName(f5.Components)
		}
	}

	return msg, nil
}

func formatPatientName(components []string) string {
	family := ""
	given := ""
	if len(components) > 0 {
		family = components[0]
	}
	if len(components) > 1 {
		given = components[1]
	}
	switch {
	case family != "" && given != "":
		return family + ", " + given
	case family != "":
		return family
	default:
		return ""
	}
}

// discoverDelimiters reads the field separator (byte 3) and the four
// encoding characters (bytes 4..8) from a trimmed message known to start
// with "MSH" and be at least 8 bytes long. Missing encoding characters
// fall back to the HL7 defaults.
func discoverDelimiters(raw string) Delimiters {
	d := DefaultDelimiters()
	d.Field = raw[3]
	encoding := raw[4:8]
	if len(encoding) > 0 {
		d.Component = encoding[0]
	}
	if len(encoding) > 1 {
		d.Repetition = encoding[1]
	}
	if len(encoding) > 2 {
		d.Escape = encoding[2]
	}
	if len(encoding) > 3 {
		d.Subcomponent = encoding[3]
	}
	return d
}

// splitSegments splits raw on \r, \n, or \r\n segment terminators and
// drops empty segments. Real-world senders are lenient about which
// terminator they use; this parser matches that leniency.
func splitSegments(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\r")
	normalized = strings.ReplaceAll(normalized, "\n", "\r")
	parts := strings.Split(normalized, "\r")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSegment splits a single segment's text into its name and fields,
// applying the MSH renumbering quirk (§4.2) when the segment is MSH.
func parseSegment(raw string, delims Delimiters) Segment {
	parts := strings.Split(raw, string(delims.Field))
	name := parts[0]

	fields := make([]Field, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		fields = append(fields, Field{
			Index:      i,
			Value:      parts[i],
			Components: strings.Split(parts[i], string(delims.Component)),
		})
	}

	if name == "MSH" {
		for i := range fields {
			fields[i].Index++
		}
		sep := string(delims.Field)
		fields = append([]Field{{
			Index:      1,
			Value:      sep,
			Components: []string{sep},
		}}, fields...)
	}

	return Segment{Name: name, Fields: fields, Raw: raw}
}
