package mllp

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/savegress/hl7forge/internal/hl7"
)

// Defaults from the configuration surface (spec.md §6).
const (
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
	DefaultMaxMessageSize = 10 * 1024 * 1024

	readScratchSize       = 64 * 1024
	initialAccumulatorCap = 8 * 1024
)

// Store is the subset of the message store a connection handler needs.
// Insert is synchronous from the handler's point of view: the handler
// awaits its completion before reading the next frame, which preserves
// per-connection ordering of inserts even though the store itself
// serializes writers across every connection.
type Store interface {
	Insert(msg *hl7.Message)
}

// HandlerConfig bounds a single connection's buffering and I/O timeouts.
type HandlerConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	return c
}

// HandleConnection runs the read loop described in spec.md §4.4: accumulate
// bytes from conn, drain complete MLLP frames in order, parse each one,
// write its ACK/NACK back on conn, and insert successfully-parsed messages
// into store. It returns when the peer closes, an I/O error other than a
// clean close occurs, the accumulator exceeds cfg.MaxMessageSize, or ctx
// is cancelled.
func HandleConnection(ctx context.Context, conn net.Conn, peer string, store Store, stats *Stats, cfg HandlerConfig) {
	cfg = cfg.withDefaults()
	defer conn.Close()

	scratch := make([]byte, readScratchSize)
	accumulated := make([]byte, 0, initialAccumulatorCap)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
			log.Printf("mllp: %s: set read deadline: %v", peer, err)
			return
		}

		n, err := conn.Read(scratch)
		if err != nil {
			if len(accumulated) == 0 {
				return
			}
			log.Printf("mllp: %s: closing with %d buffered bytes: %v", peer, len(accumulated), err)
			return
		}

		accumulated = append(accumulated, scratch[:n]...)

		if len(accumulated) > cfg.MaxMessageSize {
			log.Printf("mllp: %s: accumulator exceeded %d bytes, closing connection", peer, cfg.MaxMessageSize)
			return
		}

		for {
			payload, consumed, ok := ExtractFrame(accumulated)
			if !ok {
				break
			}

			stats.Received.Add(1)

			msg, perr := hl7.Parse(payload, peer)
			if perr != nil {
				stats.ParseErrors.Add(1)
				log.Printf("mllp: %s: parse error: %v", peer, perr)
				writeFrame(conn, hl7.BuildNack(perr.Error()), cfg.WriteTimeout, peer)
			} else {
				stats.ParsedOK.Add(1)
				writeFrame(conn, hl7.BuildAck(msg, hl7.AckAccept), cfg.WriteTimeout, peer)
				store.Insert(msg)
			}

			remaining := copy(accumulated, accumulated[consumed:])
			accumulated = accumulated[:remaining]
		}
	}
}

// writeFrame sends an MLLP-wrapped payload. Write failures are logged but
// never close the connection here — the caller keeps processing the next
// frame, since the sender may have half-closed its read side.
func writeFrame(conn net.Conn, payload string, timeout time.Duration, peer string) {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		log.Printf("mllp: %s: set write deadline: %v", peer, err)
		return
	}
	if _, err := conn.Write(Wrap(payload)); err != nil {
		log.Printf("mllp: %s: write error: %v", peer, err)
	}
}
