// Package record implements the on-disk encoding of a single command in
// ignitekv's log: a little-endian uint32 total length, a tagged body, and a
// trailing zero byte — the same length-prefixed, self-terminating shape
// BSON documents use, specialized here to the two commands the engine ever
// writes.
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	ignerrors "github.com/ignitekv/ignitekv/pkg/errors"
)

// Kind tags which command a record holds.
type Kind uint8

const (
	// KindSet tags a record that sets a key to a value.
	KindSet Kind = 0x01
	// KindRemove tags a record that removes a key.
	KindRemove Kind = 0x02
)

// lengthSize is the width of the leading total-length field.
const lengthSize = 4

// terminatorSize is the width of the trailing zero byte.
const terminatorSize = 1

// Command is one mutation to apply to the key space: either a Set carrying
// a value, or a Remove carrying only a key.
type Command struct {
	Kind  Kind
	Key   string
	Value string
}

// NewSet builds a Set command.
func NewSet(key, value string) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// NewRemove builds a Remove command.
func NewRemove(key string) Command {
	return Command{Kind: KindRemove, Key: key}
}

// ErrTornRecord is returned by Decode when a record is truncated or
// otherwise malformed. Recovery treats this as the expected shape of a log
// whose last write never completed, not as a fatal error.
var ErrTornRecord = errors.New("record: torn or malformed record")

// Encode serializes cmd into its complete on-disk record: length prefix,
// body, terminator.
func Encode(cmd Command) ([]byte, error) {
	if cmd.Kind != KindSet && cmd.Kind != KindRemove {
		return nil, ignerrors.NewCodecError(
			nil, ignerrors.ErrorCodeEncodeFailure, "unknown command kind",
		).WithDetail("kind", cmd.Kind)
	}

	body := encodeBody(cmd)
	total := lengthSize + len(body) + terminatorSize

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(total))
	copy(buf[4:4+len(body)], body)
	buf[total-1] = 0x00

	return buf, nil
}

// encodeBody writes the tagged document: a one-byte kind tag followed by a
// length-prefixed key, and for Set, a length-prefixed value.
func encodeBody(cmd Command) []byte {
	keyBytes := []byte(cmd.Key)

	size := 1 + 4 + len(keyBytes)
	if cmd.Kind == KindSet {
		size += 4 + len(cmd.Value)
	}

	body := make([]byte, size)
	body[0] = byte(cmd.Kind)
	binary.LittleEndian.PutUint32(body[1:5], uint32(len(keyBytes)))
	copy(body[5:5+len(keyBytes)], keyBytes)

	if cmd.Kind == KindSet {
		off := 5 + len(keyBytes)
		valBytes := []byte(cmd.Value)
		binary.LittleEndian.PutUint32(body[off:off+4], uint32(len(valBytes)))
		copy(body[off+4:], valBytes)
	}

	return body
}

// Decode reads exactly one record from r, returning the decoded command and
// the number of bytes consumed (equal to the record's own length prefix).
// A clean io.EOF (no bytes read at all) is returned unwrapped so callers can
// distinguish "nothing left to read" from "the last record is torn" —
// ErrTornRecord is returned for every other failure, including a length
// prefix cut short by end-of-file.
func Decode(r io.Reader) (Command, int64, error) {
	var lenBuf [lengthSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return Command{}, 0, io.EOF
		}
		return Command{}, 0, ErrTornRecord
	}

	total := binary.LittleEndian.Uint32(lenBuf[:])
	if int(total) < lengthSize+terminatorSize {
		return Command{}, 0, ErrTornRecord
	}

	rest := make([]byte, int(total)-lengthSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Command{}, 0, ErrTornRecord
	}

	if rest[len(rest)-1] != 0x00 {
		return Command{}, 0, ErrTornRecord
	}

	cmd, err := decodeBody(rest[:len(rest)-terminatorSize])
	if err != nil {
		return Command{}, 0, err
	}

	return cmd, int64(total), nil
}

// DecodeExact decodes a record from a byte slice known to hold exactly one
// record's bytes (the shape Engine.Get reads via an Extent). It is stricter
// than Decode: any leftover or missing byte is a torn/malformed record.
func DecodeExact(data []byte) (Command, error) {
	cmd, n, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Command{}, err
	}
	if n != int64(len(data)) {
		return Command{}, ErrTornRecord
	}
	return cmd, nil
}

func decodeBody(body []byte) (Command, error) {
	if len(body) < 1+4 {
		return Command{}, ErrTornRecord
	}

	kind := Kind(body[0])
	keyLen := binary.LittleEndian.Uint32(body[1:5])
	if uint32(len(body)-5) < keyLen {
		return Command{}, ErrTornRecord
	}
	key := string(body[5 : 5+keyLen])
	rest := body[5+keyLen:]

	switch kind {
	case KindRemove:
		if len(rest) != 0 {
			return Command{}, ErrTornRecord
		}
		return NewRemove(key), nil
	case KindSet:
		if len(rest) < 4 {
			return Command{}, ErrTornRecord
		}
		valLen := binary.LittleEndian.Uint32(rest[0:4])
		valBytes := rest[4:]
		if uint32(len(valBytes)) != valLen {
			return Command{}, ErrTornRecord
		}
		return NewSet(key, string(valBytes)), nil
	default:
		return Command{}, ErrTornRecord
	}
}
