package profilesync

import "github.com/accessway/backend/internal/models"

// ErrorCode classifies the last remote-store failure recorded on the port.
type ErrorCode string

const (
	ErrCodeNone              ErrorCode = ""
	ErrCodeSeedFailed        ErrorCode = "seed_failed"
	ErrCodeListenFailed      ErrorCode = "listen_failed"
	ErrCodeRefreshFailed     ErrorCode = "refresh_failed"
	ErrCodeSaveFailed        ErrorCode = "save_failed"
	ErrCodeTransactionFailed ErrorCode = "transaction_failed"
)

// State is the immutable snapshot the synchronizer publishes: the last-known
// profile (nil when unbound or the document is absent), whether a bind or
// refresh is in flight, and the last recorded failure.
type State struct {
	Profile *models.Profile
	Loading bool
	Err     ErrorCode
}
