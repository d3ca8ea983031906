package weather

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/bio-photo/internal/apperr"
)

const defaultProbeTimeout = 5 * time.Second

// KeyStatus reports whether a backend's API key is usable.
type KeyStatus struct {
	Provider string `json:"provider"`
	Present  bool   `json:"present"`
	FormatOK bool   `json:"format_ok"`
	// Valid is only meaningful when Probed is true.
	Valid  bool   `json:"valid"`
	Probed bool   `json:"probed"`
	Detail string `json:"detail,omitempty"`
}

// CheckKey inspects one backend's key. With probe set and a well-formed key
// present, a lightweight live request decides validity. Errors are reported
// in Detail, never returned.
func CheckKey(ctx context.Context, p KeyProber, probe bool) KeyStatus {
	st := KeyStatus{Provider: p.Name(), Present: p.HasKey()}
	if !st.Present {
		st.Detail = "not configured"
		return st
	}
	st.FormatOK = p.FormatOK()
	if !st.FormatOK {
		st.Detail = "key does not match the expected format"
	}
	if !probe {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	st.Probed = true
	err := p.ProbeKey(ctx)
	switch {
	case err == nil:
		st.Valid = true
		st.Detail = "ok"
	case errors.Is(err, apperr.ErrInvalidAPIKey):
		st.Detail = "rejected by provider"
	default:
		st.Detail = "probe failed: " + err.Error()
	}
	return st
}

// ValidateKeys checks every key-bearing backend concurrently and returns
// statuses in the order the probers were given.
func ValidateKeys(ctx context.Context, probers []KeyProber, probe bool) []KeyStatus {
	out := make([]KeyStatus, len(probers))
	var wg sync.WaitGroup
	for i, p := range probers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = CheckKey(ctx, p, probe)
		}()
	}
	wg.Wait()
	return out
}

// ValidateKeys checks the keys of the service's live providers.
func (s *Service) ValidateKeys(ctx context.Context, probe bool) []KeyStatus {
	probers := make([]KeyProber, 0, len(s.providers))
	for _, p := range s.providers {
		if kp, ok := p.(KeyProber); ok {
			probers = append(probers, kp)
		}
	}
	return ValidateKeys(ctx, probers, probe)
}
