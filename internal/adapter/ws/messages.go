package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Outbound message type names on the wire.
const (
	TypeAuthenticationResult = "AuthenticationResult"
	TypeCompanySet           = "CompanySet"
	TypeEventCreated         = "EventCreated"
	TypeEventUpdated         = "EventUpdated"
	TypeEventDeleted         = "EventDeleted"
	TypeEmployeeAdded        = "EmployeeAdded"
	TypeEmployeeRemoved      = "EmployeeRemoved"
)

// Authentication failure reasons reported to the client.
const (
	ReasonNoCredential     = "No token provided"
	ReasonEmptyCredential  = "Token is empty"
	ReasonInvalidSession   = "Invalid session ID"
	ReasonNotAuthenticated = "Not authenticated"
)

// ErrUnknownType marks an inbound message whose type is outside the protocol.
var ErrUnknownType = errors.New("ws: unknown message type")

// ClientMessage is the closed set of inbound protocol messages.
type ClientMessage interface {
	isClientMessage()
}

// AuthenticateMessage carries the bearer credential for the post-accept
// handshake ("session" or "authenticate" on the wire). Provided reports
// whether a credential field was present at all: the protocol answers a
// missing field and an empty value with different reasons.
type AuthenticateMessage struct {
	Credential string
	Provided   bool
}

// SetCompanyMessage rescopes an authenticated connection to a company.
type SetCompanyMessage struct {
	CompanyID string
}

func (AuthenticateMessage) isClientMessage() {}
func (SetCompanyMessage) isClientMessage()   {}

// clientEnvelope is the raw inbound JSON shape before dispatch.
type clientEnvelope struct {
	Type      string  `json:"type"`
	SessionID *string `json:"sessionId"`
	Token     *string `json:"token"`
	Data      struct {
		CompanyID string `json:"companyId"`
	} `json:"data"`
}

// ParseClientMessage decodes one inbound frame into the closed message set.
// The type field is matched case-insensitively, following the original
// protocol. Unknown types return ErrUnknownType.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ws: malformed message: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("ws: message without a type")
	}

	switch strings.ToLower(env.Type) {
	case "session", "authenticate":
		var m AuthenticateMessage
		if env.SessionID != nil {
			m.Credential, m.Provided = *env.SessionID, true
		}
		if m.Credential == "" && env.Token != nil {
			m.Credential, m.Provided = *env.Token, true
		}
		return m, nil
	case "setcompany":
		return SetCompanyMessage{CompanyID: env.Data.CompanyID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// authResult acknowledges a handshake attempt. Fields are top-level on the
// wire, matching the original protocol.
type authResult struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func authSuccess(userID string) authResult {
	return authResult{Type: TypeAuthenticationResult, Success: true, UserID: userID}
}

func authFailure(reason string) authResult {
	return authResult{Type: TypeAuthenticationResult, Success: false, Reason: reason}
}

// companySet acknowledges a scope change.
type companySet struct {
	Type      string `json:"type"`
	CompanyID string `json:"companyId"`
}

// Notification is an outbound change event: a type tag plus a minimal
// payload, targeted at every connection scoped to one company.
type Notification struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newNotification(eventType string, payload any) (Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Notification{}, fmt.Errorf("ws: marshal %s payload: %w", eventType, err)
	}
	return Notification{Type: eventType, Data: data}, nil
}

type eventPayload struct {
	EventID string `json:"eventId"`
}

type employeePayload struct {
	EmployeeID string `json:"employeeId"`
}
