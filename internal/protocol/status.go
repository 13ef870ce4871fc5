package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status text written by the device inside its reply frame.
const (
	FinishedMessage     = "Finished Current Job!"
	InvalidInputMessage = "Arduino: Invalid Input!"
	JobFailedMessage    = "Arduino: Job Failed!"
	ReadyPrefix         = "Arduino is ready"
)

var (
	// ErrNotReady is returned when a message is not a ready announcement.
	ErrNotReady = errors.New("not a ready message")
	// ErrJobFailed is returned when the device could not drive its motors.
	ErrJobFailed = errors.New("job failed")
)

// Echo brackets a received payload with dashes for the diagnostic echo.
func Echo(payload string) string {
	return "-" + payload + "-"
}

// ReadyInfo identifies an array as announced at start-up.
type ReadyInfo struct {
	Array  int
	Motors int
}

// ReadyMessage returns the payload a device announces once it is listening.
func ReadyMessage(array, motors int) string {
	return fmt.Sprintf("%s Array: %d Motors: %d", ReadyPrefix, array, motors)
}

// ParseReady extracts the array number and motor count from a ready
// announcement: the first two words made only of digits, in that order.
func ParseReady(text string) (ReadyInfo, error) {
	if !strings.Contains(text, ReadyPrefix) {
		return ReadyInfo{}, ErrNotReady
	}

	var numbers []int
	for _, word := range strings.Fields(text) {
		if !isDigits(word) {
			continue
		}
		n, err := strconv.Atoi(word)
		if err != nil {
			return ReadyInfo{}, fmt.Errorf("ready message %q: %w", text, err)
		}
		numbers = append(numbers, n)
	}

	if len(numbers) < 2 {
		return ReadyInfo{}, fmt.Errorf("ready message %q: missing array number or motor count", text)
	}
	return ReadyInfo{Array: numbers[0], Motors: numbers[1]}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReplyStatus classifies a reply frame.
type ReplyStatus int

const (
	ReplyUnknown ReplyStatus = iota
	ReplyFinished
	ReplyInvalid
	ReplyFailed
)

func (s ReplyStatus) String() string {
	switch s {
	case ReplyFinished:
		return "finished"
	case ReplyInvalid:
		return "invalid input"
	case ReplyFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reply is a device's answer to one command frame.
type Reply struct {
	Text   string
	Status ReplyStatus
}

// ClassifyReply inspects reply text for the device's status messages.
func ClassifyReply(text string) Reply {
	r := Reply{Text: text}
	switch {
	case strings.Contains(text, InvalidInputMessage):
		r.Status = ReplyInvalid
	case strings.Contains(text, JobFailedMessage):
		r.Status = ReplyFailed
	case strings.Contains(text, FinishedMessage):
		r.Status = ReplyFinished
	}
	return r
}

// Err returns nil for a finished job and an error describing anything else.
func (r Reply) Err() error {
	switch r.Status {
	case ReplyFinished:
		return nil
	case ReplyInvalid:
		return fmt.Errorf("device rejected command: %w", ErrInvalidInput)
	case ReplyFailed:
		return fmt.Errorf("device reported: %w", ErrJobFailed)
	default:
		return fmt.Errorf("unexpected reply %q", r.Text)
	}
}
