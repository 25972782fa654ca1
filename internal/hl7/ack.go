package hl7

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AckCode is an HL7 MSA-1 acknowledgment code.
type AckCode string

const (
	AckAccept           AckCode = "AA"
	AckApplicationError AckCode = "AE"
	AckApplicationReject AckCode = "AR"
)

// vendorApplication and vendorFacility identify this receiver in the
// sending-side fields of every ACK/NACK it emits.
const (
	vendorApplication = "HL7Forge"
	vendorFacility    = "HL7Forge"
	ackTimeFormat     = "20060102150405"
)

// BuildAck renders the ACK (or NACK) for a successfully-parsed message.
// The receiving-side MSH fields echo the original sender's application
// and facility; MSA-2 echoes the original control ID.
func BuildAck(msg *Message, code AckCode) string {
	msh := fmt.Sprintf(
		"MSH|^~\\&|%s|%s|%s|%s|%s||ACK^%s|%s|P|%s",
		vendorApplication,
		vendorFacility,
		msg.SendingApplication,
		msg.SendingFacility,
		time.Now().UTC().Format(ackTimeFormat),
		msg.TriggerEvent,
		newControlID(),
		msg.Version,
	)
	msa := fmt.Sprintf("MSA|%s|%s", code, msg.MessageControlID)
	return msh + "\r" + msa
}

// BuildNack renders the canned NACK sent when a frame could not be
// parsed at all, so there is no original message to echo fields from.
func BuildNack(reason string) string {
	msh := fmt.Sprintf(
		"MSH|^~\\&|%s|%s|||%s||ACK|%s|P|2.5",
		vendorApplication,
		vendorFacility,
		time.Now().UTC().Format(ackTimeFormat),
		newControlID(),
	)
	msa := fmt.Sprintf("MSA|%s|UNKNOWN|%s", AckApplicationError, reason)
	return msh + "\r" + msa
}

// newControlID mints a fresh control id: a UUID with hyphens stripped,
// truncated to the 20-ASCII-character ceiling HL7 control IDs allow.
func newControlID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(id) > 20 {
		id = id[:20]
	}
	return id
}
