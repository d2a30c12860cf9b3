package id

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered, which makes them useful as a run correlation key even
// though a single process only ever runs one node.
func New() int64 {
	return node.Generate().Int64()
}

// NewRunID stamps a single invoke() call with a Snowflake-derived run identifier,
// used to correlate every progress message, log line, and span a deliberation
// produces. It is not a patient-record element identifier — see the id package's
// NewShort for that shorter, human-presentable form.
func NewRunID() string {
	return strconv.FormatInt(New(), 36)
}
