package network

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Little-endian on the wire, the byte order every peer already speaks.
var byteOrder = binary.LittleEndian

const (
	tagSize   = 1
	int32Size = 4
	idSize    = 8
)

// Encode serializes m into a fresh buffer: the type tag followed by the
// variant's payload.
func Encode(m Message) []byte {
	w := &writer{buf: make([]byte, 0, 32)}
	w.buf = append(w.buf, byte(m.Type()))
	m.encodePayload(w)
	return w.buf
}

// Decode parses a buffer produced by Encode. Malformed input yields a
// *ProtocolError and a nil message.
func Decode(data []byte) (Message, error) {
	if len(data) < tagSize {
		return nil, &ProtocolError{Err: ErrEmptyMessage}
	}

	t := MessageType(data[0])
	r := &reader{data: data[tagSize:]}

	var m Message
	switch t {
	case MsgTypePlayerJoined:
		m = decodePlayerJoined(r)
	case MsgTypePlayerLeft:
		m = PlayerLeft{ID: r.uint64()}
	case MsgTypeGameStateUpdate:
		m = decodeGameStateUpdate(r)
	case MsgTypeWordAssigned:
		m = decodeWordAssigned(r)
	case MsgTypeClueSubmitted:
		m = decodeClueSubmitted(r)
	case MsgTypeVoteSubmitted:
		m = decodeVoteSubmitted(r)
	case MsgTypeRoundStart:
		m = decodeRoundStart(r)
	case MsgTypeRoundEnd:
		m = decodeRoundEnd(r)
	case MsgTypeGameEnd:
		m = decodeGameEnd(r)
	case MsgTypeReadyState:
		m = decodeReadyState(r)
	case MsgTypeActionRejected:
		m = decodeActionRejected(r)
	default:
		return nil, &ProtocolError{Type: t, Err: ErrUnknownType}
	}

	if r.err != nil {
		return nil, &ProtocolError{Type: t, Err: r.err}
	}
	if r.remaining() != 0 {
		return nil, &ProtocolError{Type: t, Err: ErrTrailingBytes}
	}
	return m, nil
}

func decodePlayerJoined(r *reader) PlayerJoined {
	var m PlayerJoined
	m.ID = r.uint64()
	m.Name = r.string()
	return m
}

func decodeGameStateUpdate(r *reader) GameStateUpdate {
	var m GameStateUpdate
	m.Phase = r.int32()
	m.StateData = r.bytes()
	return m
}

func decodeWordAssigned(r *reader) WordAssigned {
	var m WordAssigned
	m.ID = r.uint64()
	m.Word = r.string()
	m.IsImpostor = r.bool()
	return m
}

func decodeClueSubmitted(r *reader) ClueSubmitted {
	var m ClueSubmitted
	m.ID = r.uint64()
	m.Clue = r.string()
	return m
}

func decodeVoteSubmitted(r *reader) VoteSubmitted {
	var m VoteSubmitted
	m.VoterID = r.uint64()
	m.TargetID = r.uint64()
	return m
}

func decodeRoundStart(r *reader) RoundStart {
	var m RoundStart
	m.RoundNumber = r.int32()
	m.SecretWord = r.string()
	return m
}

func decodeRoundEnd(r *reader) RoundEnd {
	var m RoundEnd
	m.VotedOutID = r.uint64()
	m.WasImpostor = r.bool()
	return m
}

func decodeGameEnd(r *reader) GameEnd {
	var m GameEnd
	m.ImpostorsWon = r.bool()
	m.ImpostorIDs = r.uint64s()
	return m
}

func decodeReadyState(r *reader) ReadyState {
	var m ReadyState
	m.ID = r.uint64()
	m.IsReady = r.bool()
	return m
}

func decodeActionRejected(r *reader) ActionRejected {
	var m ActionRejected
	m.ID = r.uint64()
	m.Action = r.string()
	m.Reason = r.string()
	return m
}

// EncodeIDs packs a list of ids the same way list fields are packed inside a
// message. GameStateUpdate uses it to carry the turn order.
func EncodeIDs(ids []uint64) []byte {
	w := &writer{}
	w.uint64s(ids)
	return w.buf
}

// DecodeIDs is the inverse of EncodeIDs.
func DecodeIDs(data []byte) ([]uint64, error) {
	r := &reader{data: data}
	ids := r.uint64s()
	if r.err != nil {
		return nil, &ProtocolError{Type: MsgTypeGameStateUpdate, Err: r.err}
	}
	if r.remaining() != 0 {
		return nil, &ProtocolError{Type: MsgTypeGameStateUpdate, Err: ErrTrailingBytes}
	}
	return ids, nil
}

type writer struct {
	buf []byte
}

func (w *writer) uint64(v uint64) {
	w.buf = byteOrder.AppendUint64(w.buf, v)
}

func (w *writer) int32(v int32) {
	w.buf = byteOrder.AppendUint32(w.buf, uint32(v))
}

func (w *writer) bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

func (w *writer) string(s string) {
	w.int32(int32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) bytes(b []byte) {
	w.int32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) uint64s(ids []uint64) {
	w.int32(int32(len(ids)))
	for _, id := range ids {
		w.uint64(id)
	}
}

// reader keeps the first error and returns zero values after it, so decoders
// can read every field unconditionally and check once at the end.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > r.remaining() {
		r.err = ErrTruncated
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint64() uint64 {
	b := r.take(idSize)
	if b == nil {
		return 0
	}
	return byteOrder.Uint64(b)
}

func (r *reader) int32() int32 {
	b := r.take(int32Size)
	if b == nil {
		return 0
	}
	return int32(byteOrder.Uint32(b))
}

func (r *reader) bool() bool {
	b := r.take(1)
	if b == nil {
		return false
	}
	return b[0] != 0
}

func (r *reader) length(unit int) int {
	n := r.int32()
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.err = ErrNegativeLength
		return 0
	}
	if int64(n)*int64(unit) > int64(r.remaining()) || int64(n)*int64(unit) > math.MaxInt32 {
		r.err = ErrTruncated
		return 0
	}
	return int(n)
}

func (r *reader) string() string {
	n := r.length(1)
	if n == 0 {
		return ""
	}
	b := r.take(n)
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.err = ErrInvalidUTF8
		return ""
	}
	return string(b)
}

func (r *reader) bytes() []byte {
	n := r.length(1)
	if n == 0 {
		return nil
	}
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *reader) uint64s() []uint64 {
	n := r.length(idSize)
	if n == 0 {
		return nil
	}
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = r.uint64()
	}
	return ids
}
