package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducer_RequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(nil, "decisions")
	assert.Error(t, err)

	_, err = NewProducer([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
