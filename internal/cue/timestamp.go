package cue

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// FramesPerSecond is the number of CD frames in one second of audio.
	FramesPerSecond = 75

	secondsPerMinute = 60

	// MaxMinutes is the largest minute count whose positions fit in a time.Duration.
	MaxMinutes = math.MaxInt64/int64(time.Second)/secondsPerMinute - 1
)

// Timestamp is a position inside an audio file counted in CD frames.
type Timestamp int64

// NewTimestamp builds a timestamp from its minute, second and frame parts.
func NewTimestamp(minutes, seconds, frames int64) Timestamp {
	return Timestamp((minutes*secondsPerMinute+seconds)*FramesPerSecond + frames)
}

// ParseTimestamp parses an MM:SS:FF position. MM:SS is accepted with zero frames.
// Minutes are bounded by MaxMinutes; seconds must be below 60 and frames below 75.
func ParseTimestamp(value string) (Timestamp, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}

	numbers := make([]int64, 3)

	for i, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
		}

		number, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTimestamp, value, err)
		}

		numbers[i] = number
	}

	minutes, seconds, frames := numbers[0], numbers[1], numbers[2]

	if minutes > MaxMinutes {
		return 0, fmt.Errorf("%w: %q: minutes out of range", ErrInvalidTimestamp, value)
	}

	if seconds >= secondsPerMinute {
		return 0, fmt.Errorf("%w: %q: seconds out of range", ErrInvalidTimestamp, value)
	}

	if frames >= FramesPerSecond {
		return 0, fmt.Errorf("%w: %q: frames out of range", ErrInvalidTimestamp, value)
	}

	return NewTimestamp(minutes, seconds, frames), nil
}

// Seconds returns the position in seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t) / FramesPerSecond
}

// Duration returns the position as a time.Duration.
func (t Timestamp) Duration() time.Duration {
	whole := time.Duration(t/FramesPerSecond) * time.Second

	return whole + time.Duration(t%FramesPerSecond)*time.Second/FramesPerSecond
}

// String formats the position as MM:SS:FF.
func (t Timestamp) String() string {
	frames := int64(t) % FramesPerSecond
	totalSeconds := int64(t) / FramesPerSecond

	return fmt.Sprintf("%02d:%02d:%02d",
		totalSeconds/secondsPerMinute,
		totalSeconds%secondsPerMinute,
		frames)
}
