package navmesh

import "fmt"

// Status is a bitflag status/error code returned by Query methods, mirroring
// the navmesh query layer's own convention of treating a query outcome as
// in-band status rather than a wrapped Go error: most callers only need to
// ask "did it succeed" without allocating an error value.
type Status uint32

// High level status bits.
const (
	Failure    Status = 1 << 31
	Success    Status = 1 << 30
	InProgress Status = 1 << 29

	StatusDetailMask Status = 0x0ffffff
	WrongMagic       Status = 1 << 0
	WrongVersion     Status = 1 << 1
	OutOfMemory      Status = 1 << 2
	InvalidParam     Status = 1 << 3
	BufferTooSmall   Status = 1 << 4
	OutOfNodes       Status = 1 << 5
	PartialResult    Status = 1 << 6
)

// Error implements the error interface so a Status can be returned as an
// error where a caller's signature demands one.
func (s Status) Error() string {
	switch {
	case s&Failure != 0:
		switch s & StatusDetailMask {
		case InvalidParam:
			return "invalid parameter"
		case OutOfMemory:
			return "out of memory"
		case OutOfNodes:
			return "out of nodes"
		case BufferTooSmall:
			return "buffer too small"
		case WrongMagic:
			return "wrong magic number"
		case WrongVersion:
			return "wrong version number"
		default:
			return fmt.Sprintf("navmesh query failed (0x%x)", uint32(s))
		}
	case s&InProgress != 0:
		return "in progress"
	default:
		return "success"
	}
}

// Succeeded reports whether s carries the Success bit.
func (s Status) Succeeded() bool { return s&Success != 0 }

// Failed reports whether s carries the Failure bit.
func (s Status) Failed() bool { return s&Failure != 0 }

// InProgressStatus reports whether s carries the InProgress bit.
func (s Status) InProgressStatus() bool { return s&InProgress != 0 }

// Detail reports whether s carries the given detail bit.
func (s Status) Detail(bit Status) bool { return s&bit != 0 }
