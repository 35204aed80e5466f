package convertbet

import (
	"context"
	"strings"

	perr "flexcode/internal/platform/errors"
)

// Simulator stands in for the live service during local development. A
// converted code is "CONV" plus the last six characters of the input; codes
// that start with INVALID are refused so the failure path can be exercised
type Simulator struct {
	supported map[string]struct{}
}

// NewSimulator builds a Simulator accepting the same slugs as the live client
func NewSimulator(supported ...string) *Simulator {
	if len(supported) == 0 {
		supported = DefaultSupported
	}
	m := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		m[strings.ToLower(s)] = struct{}{}
	}
	return &Simulator{supported: m}
}

// Convert returns a deterministic fake conversion
func (s *Simulator) Convert(ctx context.Context, code, from, to string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, okFrom := s.supported[strings.ToLower(from)]
	_, okTo := s.supported[strings.ToLower(to)]
	if !okFrom || !okTo {
		return "", perr.UnsupportedPairf("unsupported platform conversion: %s to %s", from, to)
	}
	if code == "" || strings.HasPrefix(strings.ToUpper(code), "INVALID") {
		return "", perr.InvalidCodef("invalid code %q", code)
	}
	if len(code) > 6 {
		code = code[len(code)-6:]
	}
	return "CONV" + code, nil
}
