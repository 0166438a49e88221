package types

import "strings"

// Identity is a wallet account address identifying a document owner or a
// facility. Addresses are case-normalized to lowercase hex on the way in so
// map lookups and equality checks never depend on checksum casing.
type Identity string

// NormalizeIdentity lowercases a hex address string.
func NormalizeIdentity(addr string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(addr)))
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == ""
}

// NetworkDescriptor describes the target blockchain network the wallet must
// be pointed at before any registry operation runs.
type NetworkDescriptor struct {
	ChainID        int64  `json:"chain_id" mapstructure:"chain_id"`
	Name           string `json:"name" mapstructure:"name"`
	NativeCurrency string `json:"native_currency" mapstructure:"native_currency"`
	RPCURL         string `json:"rpc_url" mapstructure:"rpc_url"`
	ExplorerURL    string `json:"explorer_url" mapstructure:"explorer_url"`
}

// SessionState represents the wallet session lifecycle state.
type SessionState string

const (
	SessionDisconnected SessionState = "disconnected"
	SessionConnecting   SessionState = "connecting"
	SessionConnected    SessionState = "connected"
)

// SessionStatus is a point-in-time snapshot of the session, safe to hand to
// status endpoints and logs.
type SessionStatus struct {
	State            SessionState `json:"state"`
	Identity         Identity     `json:"identity,omitempty"`
	NetworkConfirmed bool         `json:"network_confirmed"`
	ChainID          int64        `json:"chain_id,omitempty"`
}
