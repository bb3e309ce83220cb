package player

import (
	"errors"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Error kinds carried on player errors. Read them with ftag.Get.
const (
	KindConfiguration   ftag.Kind = "CONFIGURATION"
	KindPrecondition    ftag.Kind = "PRECONDITION"
	KindInvalidArgument ftag.Kind = "INVALID_ARGUMENT"
	KindInternal        ftag.Kind = "INTERNAL"

	// KindUnmappedKey is set by keyboards on keys the current layout cannot
	// type. The engine skips such notes instead of failing.
	KindUnmappedKey ftag.Kind = "UNMAPPED_KEY"
)

var (
	ErrMissingNotes     = errors.New("missing song notes")
	ErrTargetNotRunning = errors.New("target not running")
)

func precondition(err error, desc string) error {
	return fault.Wrap(err, ftag.With(KindPrecondition), fmsg.WithDesc(err.Error(), desc))
}

func configuration(msg, desc string) error {
	return fault.New(msg, ftag.With(KindConfiguration), fmsg.WithDesc(msg, desc))
}

func invalidArgument(msg, desc string) error {
	return fault.New(msg, ftag.With(KindInvalidArgument), fmsg.WithDesc(msg, desc))
}

func internal(err error, msg string) error {
	return fault.Wrap(err, ftag.With(KindInternal), fmsg.With(msg))
}
