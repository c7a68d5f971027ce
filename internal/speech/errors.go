package speech

import "errors"

var (
	// ErrProviderUnavailable — сеть, HTTP или паника внутри провайдера.
	ErrProviderUnavailable = errors.New("synthesis provider unavailable")

	// ErrProviderEmptyResponse — ответ без success или без audio.
	// For fallback purposes it is the same as unavailability.
	ErrProviderEmptyResponse = errors.New("synthesis provider returned no audio")
)
