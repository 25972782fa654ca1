package hl7

import (
	"strings"
	"testing"
)

func TestBuildAckShape(t *testing.T) {
	msg, err := Parse(sampleADT, "127.0.0.1:9999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ack := BuildAck(msg, AckAccept)

	wantPrefix := "MSH|^~\\&|HL7Forge|HL7Forge|SENDING_APP|SENDING_FAC|"
	if !strings.HasPrefix(ack, wantPrefix) {
		t.Errorf("ack = %q, want prefix %q", ack, wantPrefix)
	}
	if !strings.Contains(ack, "|ACK^A01|") {
		t.Errorf("ack = %q, want to contain |ACK^A01|", ack)
	}

	lines := strings.Split(ack, "\r")
	if len(lines) != 2 {
		t.Fatalf("ack has %d segments, want 2", len(lines))
	}
	if lines[1] != "MSA|AA|MSG00001" {
		t.Errorf("MSA segment = %q, want MSA|AA|MSG00001", lines[1])
	}
}

func TestBuildNackShape(t *testing.T) {
	nack := BuildNack("parse failure")
	lines := strings.Split(nack, "\r")
	if len(lines) != 2 {
		t.Fatalf("nack has %d segments, want 2", len(lines))
	}
	if lines[1] != "MSA|AE|UNKNOWN|parse failure" {
		t.Errorf("MSA segment = %q, want MSA|AE|UNKNOWN|parse failure", lines[1])
	}
}
