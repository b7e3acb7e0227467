package acquire

import "errors"

var (
	// ErrInvalidConfiguration indicates bad session parameters. It is fatal
	// to the construction call only; it never affects a running session.
	ErrInvalidConfiguration = errors.New("acquire: invalid configuration")

	// ErrAlreadyRunning is returned by Start while a session is running or
	// paused.
	ErrAlreadyRunning = errors.New("acquire: session already running")

	// ErrInvalidTransition reports control-surface misuse such as Pause
	// while stopped. The state is left unchanged.
	ErrInvalidTransition = errors.New("acquire: invalid state transition")

	// ErrReadTimeout is returned by a Source when no sample arrived within
	// the read deadline. The tick is skipped and recorded as a gap.
	ErrReadTimeout = errors.New("acquire: source read timed out")

	// ErrSourceUnavailable is returned by a Source that is permanently gone.
	// Unlike per-tick read errors it stops the session with an Error state.
	ErrSourceUnavailable = errors.New("acquire: source unavailable")

	// ErrUnknownChannel is returned by queries for a channel that is not
	// part of the session configuration.
	ErrUnknownChannel = errors.New("acquire: unknown channel")

	// ErrCalibrationLocked is returned by Calibrate while acquisition is
	// active; calibration and acquisition are mutually exclusive modes.
	ErrCalibrationLocked = errors.New("acquire: calibration requires a stopped session")
)
