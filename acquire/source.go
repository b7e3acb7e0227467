package acquire

import "context"

// Source is the narrow contract this core expects from a sample provider.
// Read returns one raw value for the channel, blocking no longer than the
// context allows. Implementations report a missed tick with ErrReadTimeout
// (or a context deadline error) and a permanently lost device with
// ErrSourceUnavailable; anything else is treated as a per-tick read error.
type Source interface {
	Read(ctx context.Context, channelID int) (float64, error)
}
