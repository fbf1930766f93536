package secondary

import "errors"

// ErrTokenNotFound is returned by RefreshTokenStore.Consume for unknown or
// expired token ids.
var ErrTokenNotFound = errors.New("refresh token not found")
