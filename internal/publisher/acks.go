package publisher

import (
	"errors"
	"fmt"
	"strings"
)

// Acks specifies the broker acknowledgment requirements (Kafka only).
type Acks string

const (
	// AcksAll requires all ISR replicas to acknowledge.
	AcksAll Acks = "all"

	// AcksLeader requires only the leader replica to acknowledge.
	AcksLeader Acks = "leader"

	// AcksNone requires no acknowledgment.
	AcksNone Acks = "none"
)

var acksTypes map[Acks]struct{}
var acksList []string

func init() {
	list := []Acks{
		AcksAll,
		AcksLeader,
		AcksNone,
	}

	acksTypes = make(map[Acks]struct{})
	for _, a := range list {
		acksTypes[a] = struct{}{}
		acksList = append(acksList, string(a))
	}
}

func validateAcks(acks Acks) error {
	if acks == "" {
		return nil
	}

	if _, ok := acksTypes[acks]; ok {
		return nil
	}

	list := "'" + strings.Join(acksList, "', '") + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("acks '%s' is invalid: must be %s or empty", acks, list))
}
