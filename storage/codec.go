package storage

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/lifetimes"
)

// Binary layout shared by ordered key value backends.
// A key part is its bytes, 0x00 escaped as 0x00 0xFF, followed by 0x00 0x01.
// Moments are big endian with the sign bit flipped, so that byte order is moment order.
// Then, bytes order of row keys is CompareRows order.

const (
	escapeByte    = 0x00
	escapedZero   = 0xFF
	separatorByte = 0x01
	momentSize    = 8
)

// EncodeKey returns the encoding of a selection key, a prefix of all its rows keys
func EncodeKey(key []string) []byte {
	var buffer bytes.Buffer
	for _, part := range key {
		for _, b := range []byte(part) {
			if b == escapeByte {
				buffer.WriteByte(escapeByte)
				buffer.WriteByte(escapedZero)
			} else {
				buffer.WriteByte(b)
			}
		}

		buffer.WriteByte(escapeByte)
		buffer.WriteByte(separatorByte)
	}

	return buffer.Bytes()
}

// EncodeMoment returns 8 bytes preserving order
func EncodeMoment(m lifetimes.Moment) []byte {
	result := make([]byte, momentSize)
	binary.BigEndian.PutUint64(result, uint64(m)^(1<<63))
	return result
}

// DecodeMoment reads EncodeMoment result
func DecodeMoment(value []byte) lifetimes.Moment {
	return lifetimes.Moment(binary.BigEndian.Uint64(value) ^ (1 << 63))
}

// EncodeRowKey returns the key of a row: key then start then end
func EncodeRowKey(key []string, interval lifetimes.TimeInterval) []byte {
	result := EncodeKey(key)
	result = append(result, EncodeMoment(interval.Start())...)
	return append(result, EncodeMoment(interval.End())...)
}

// EncodeSeekKey returns the row key of [m, end] to position cursors
func EncodeSeekKey(key []string, m, end lifetimes.Moment) []byte {
	result := EncodeKey(key)
	result = append(result, EncodeMoment(m)...)
	return append(result, EncodeMoment(end)...)
}

// DecodeRowKey reads EncodeRowKey result
func DecodeRowKey(value []byte) ([]string, lifetimes.TimeInterval, error) {
	var interval lifetimes.TimeInterval
	if len(value) < 2*momentSize {
		return nil, interval, errors.Newf("row key too short: %d bytes", len(value))
	}

	size := len(value) - 2*momentSize
	key, err := decodeKey(value[:size])
	if err != nil {
		return nil, interval, err
	}

	start := DecodeMoment(value[size : size+momentSize])
	end := DecodeMoment(value[size+momentSize:])
	interval, err = lifetimes.NewTimeInterval(start, end)
	return key, interval, err
}

// decodeKey reads EncodeKey result
func decodeKey(value []byte) ([]string, error) {
	result := []string{}
	var current []byte
	for index := 0; index < len(value); index++ {
		if value[index] != escapeByte {
			current = append(current, value[index])
			continue
		} else if index+1 >= len(value) {
			return nil, errors.New("truncated key")
		}

		index++
		switch value[index] {
		case escapedZero:
			current = append(current, escapeByte)
		case separatorByte:
			result = append(result, string(current))
			current = nil
		default:
			return nil, errors.Newf("invalid escape byte %x", value[index])
		}
	}

	if len(current) != 0 {
		return nil, errors.New("unterminated key part")
	}

	return result, nil
}

// EncodeRowValue returns datum id then value
func EncodeRowValue(datumID int64, value string) []byte {
	result := make([]byte, momentSize, momentSize+len(value))
	binary.BigEndian.PutUint64(result, uint64(datumID))
	return append(result, value...)
}

// DecodeRowValue reads EncodeRowValue result
func DecodeRowValue(value []byte) (int64, string, error) {
	if len(value) < momentSize {
		return 0, "", errors.Newf("row value too short: %d bytes", len(value))
	}

	return int64(binary.BigEndian.Uint64(value[:momentSize])), string(value[momentSize:]), nil
}

// DecodeRow builds a row from its key and value
func DecodeRow(key, value []byte) (Row, error) {
	var row Row
	elementKey, interval, err := DecodeRowKey(key)
	if err != nil {
		return row, err
	}

	datumID, content, err := DecodeRowValue(value)
	if err != nil {
		return row, err
	}

	return Row{Key: elementKey, Interval: interval, Value: content, DatumID: datumID}, nil
}

// EncodeSecondaryPrefix returns the prefix of all secondary keys of a datum
func EncodeSecondaryPrefix(datumID int64) []byte {
	result := make([]byte, momentSize)
	binary.BigEndian.PutUint64(result, uint64(datumID))
	return result
}

// EncodeSecondaryKey returns datum then name
func EncodeSecondaryKey(datumID int64, name string) []byte {
	return append(EncodeSecondaryPrefix(datumID), name...)
}

// SecondaryName returns the name part of a secondary key
func SecondaryName(key []byte) string {
	if len(key) < momentSize {
		return ""
	}

	return string(key[momentSize:])
}
