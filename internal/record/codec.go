package record

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format names a wire encoding for records.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown record format")

// Codec turns a record into the bytes published as the message value.
type Codec interface {
	Encode(r Record) ([]byte, error)
	ContentType() string
}

// NewCodec returns the codec for f. An empty format means JSON.
func NewCodec(f Format) (Codec, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatJSON, "":
		return jsonCodec{}, nil
	case FormatMsgpack:
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("%w: '%s' (must be 'json' or 'msgpack')", ErrUnknownFormat, f)
}

type jsonCodec struct{}

func (jsonCodec) Encode(r Record) ([]byte, error) { return json.Marshal(r) }
func (jsonCodec) ContentType() string             { return "application/json" }

type msgpackCodec struct{}

func (msgpackCodec) Encode(r Record) ([]byte, error) { return msgpack.Marshal(r) }
func (msgpackCodec) ContentType() string             { return "application/msgpack" }
