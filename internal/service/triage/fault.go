package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// FaultReason classifies a failed exchange with a backend endpoint.
type FaultReason string

const (
	FaultUnauthenticated FaultReason = "unauthenticated"
	FaultNetwork         FaultReason = "network"
	FaultServer          FaultReason = "server"
	FaultUnknown         FaultReason = "unknown"
)

// User-facing failure texts. These end up in the transcript verbatim.
const (
	MsgReLogin = "Your session has expired or you are not logged in. Please log in again to chat."
	MsgNetwork = "Could not connect to PetHealth AI services. Please try again later."
)

// Fault is a classified failure. Every error returned by the triage and
// vet-locator clients is a *Fault.
type Fault struct {
	Reason  FaultReason
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

// FaultFrom coerces any error into a Fault, wrapping uncategorized ones as
// FaultUnknown so nothing is silently dropped.
func FaultFrom(err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}
	return &Fault{Reason: FaultUnknown, Message: err.Error()}
}

// AuthFault is the fault raised when no token could be obtained. The user
// must log in again; the session itself survives.
func AuthFault() *Fault {
	return &Fault{Reason: FaultUnauthenticated, Message: MsgReLogin}
}

// NetworkFault covers transport-level failures (DNS, refused, timeout).
func NetworkFault() *Fault {
	return &Fault{Reason: FaultNetwork, Message: MsgNetwork}
}

// ResponseFault classifies a non-2xx response. The JSON error body's message
// is preferred; otherwise one is synthesized from the status code. Auth
// statuses map to FaultUnauthenticated, everything else to FaultServer.
func ResponseFault(resp *http.Response) *Fault {
	message := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
	}

	reason := FaultServer
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		reason = FaultUnauthenticated
	}
	return &Fault{Reason: reason, Message: message}
}
