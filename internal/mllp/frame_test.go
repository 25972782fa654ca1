package mllp

import "testing"

func TestExtractFrameRoundTrip(t *testing.T) {
	msg := "MSH|^~\\&|TEST\rPID|||123"
	frame := Wrap(msg)

	payload, consumed, ok := ExtractFrame(frame)
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if payload != msg {
		t.Errorf("payload = %q, want %q", payload, msg)
	}
	if consumed != len(frame) {
		t.Errorf("consumed = %d, want %d", consumed, len(frame))
	}
}

func TestExtractFrameIncomplete(t *testing.T) {
	buf := []byte{StartBlock, 'M', 'S', 'H'}
	if _, _, ok := ExtractFrame(buf); ok {
		t.Fatal("expected no complete frame")
	}
}

func TestExtractFrameEmptyBuffer(t *testing.T) {
	if _, _, ok := ExtractFrame(nil); ok {
		t.Fatal("expected no complete frame for empty buffer")
	}
}

func TestExtractFrameDiscardsPreambleGarbage(t *testing.T) {
	msg := "MSH|^~\\&|A"
	frame := append([]byte("garbage-before-frame"), Wrap(msg)...)

	payload, consumed, ok := ExtractFrame(frame)
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if payload != msg {
		t.Errorf("payload = %q, want %q", payload, msg)
	}
	// consumed is measured from the start of the buffer, so the garbage
	// preamble is silently discarded along with the frame.
	if consumed != len(frame) {
		t.Errorf("consumed = %d, want %d (preamble garbage included)", consumed, len(frame))
	}
}

func TestExtractFrameIncrementalFeed(t *testing.T) {
	msg := "MSH|^~\\&|INCREMENTAL\rPID|||1"
	frame := Wrap(msg)

	for splitAt := 1; splitAt < len(frame); splitAt++ {
		first := frame[:splitAt]
		// Any prefix shorter than the whole frame must report incomplete.
		if _, _, ok := ExtractFrame(first); ok {
			t.Fatalf("split at %d: prefix reported a complete frame", splitAt)
		}

		buf := append(append([]byte{}, first...), frame[splitAt:]...)
		payload, consumed, ok := ExtractFrame(buf)
		if !ok {
			t.Fatalf("split at %d: expected eventual complete extraction", splitAt)
		}
		if payload != msg || consumed != len(frame) {
			t.Fatalf("split at %d: got (%q, %d), want (%q, %d)", splitAt, payload, consumed, msg, len(frame))
		}
	}
}

func TestExtractFrameLossyUTF8(t *testing.T) {
	invalid := append([]byte("MSH|^~\\&|"), 0xFF, 0xFE)
	frame := Wrap(string(invalid))

	payload, _, ok := ExtractFrame(frame)
	if !ok {
		t.Fatal("expected a complete frame despite invalid UTF-8")
	}
	if payload == "" {
		t.Fatal("expected non-empty lossily-decoded payload")
	}
}

func TestWrapEnvelope(t *testing.T) {
	wrapped := Wrap("TEST")
	if wrapped[0] != StartBlock {
		t.Errorf("first byte = %x, want VT", wrapped[0])
	}
	if wrapped[len(wrapped)-2] != EndBlock {
		t.Errorf("second-to-last byte = %x, want FS", wrapped[len(wrapped)-2])
	}
	if wrapped[len(wrapped)-1] != CarriageReturn {
		t.Errorf("last byte = %x, want CR", wrapped[len(wrapped)-1])
	}
}
