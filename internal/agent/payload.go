package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON tags used by agents in registration and refresh bodies.
const (
	tagName        = "name"
	tagMAC         = "MAC"
	tagIP          = "ip"
	tagCanSleep    = "canSleep"
	tagCustom      = "custom"
	tagUIClassName = "uiClassName"
	tagHeap        = "heap"
	tagPingPeriod  = "pingPeriod"
	tagPong        = "pong"
)

// request is the decoded form of a registration or refresh body.
// Pointer fields distinguish "absent" from zero values. A field of the
// wrong JSON type reads as absent.
type request struct {
	Name        *string
	MAC         *string
	IP          *string
	CanSleep    bool
	Custom      json.RawMessage
	UIClassName string
	Heap        int32
	PingPeriod  int
}

// decodeRequest parses a request body no larger than maxSize bytes.
// Only a body that is not a JSON object fails with ErrDecode.
func decodeRequest(payload []byte, maxSize int) (*request, error) {
	if maxSize > 0 && len(payload) > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrDecode, len(payload), maxSize)
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrDecode)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	req := &request{
		Name:       optional[*string](fields[tagName]),
		MAC:        optional[*string](fields[tagMAC]),
		IP:         optional[*string](fields[tagIP]),
		CanSleep:   optional[bool](fields[tagCanSleep]),
		Custom:     fields[tagCustom],
		Heap:       optional[int32](fields[tagHeap]),
		PingPeriod: optional[int](fields[tagPingPeriod]),
	}
	if ui := optional[*string](fields[tagUIClassName]); ui != nil {
		req.UIClassName = *ui
	}
	return req, nil
}

// optional decodes raw into a T, or returns the zero T when raw is
// absent, null or of another JSON type.
func optional[T any](raw json.RawMessage) T {
	var v T
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// custom returns the custom payload, or nil when it is absent, null or not a string.
func (r *request) custom() *string {
	if len(r.Custom) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(r.Custom, &s); err != nil {
		return nil
	}
	return &s
}

// requireMAC returns the MAC field, validated against MACMaxLength.
func (r *request) requireMAC() (string, error) {
	mac, err := required(r.MAC, tagMAC)
	if err != nil {
		return "", err
	}
	if len(mac) > MACMaxLength {
		return "", fmt.Errorf("%w: %s longer than %d characters", ErrValidation, tagMAC, MACMaxLength)
	}
	return mac, nil
}

func required(v *string, tag string) (string, error) {
	if v == nil || *v == "" {
		return "", fmt.Errorf("%w: missing %s", ErrValidation, tag)
	}
	return *v, nil
}
