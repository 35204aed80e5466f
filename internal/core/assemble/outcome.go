package assemble

// Reason classifies why a conversion failed
type Reason uint8

const (
	// ReasonNone marks a converted outcome
	ReasonNone Reason = iota
	// ReasonInvalidCode means the service did not recognize the code
	ReasonInvalidCode
	// ReasonUnsupportedPair means the service cannot map between the platforms
	ReasonUnsupportedPair
	// ReasonTransient means retries ran out on timeouts, 5xx or rate limits
	ReasonTransient
	// ReasonRejected covers every other refusal (credentials, malformed replies)
	ReasonRejected
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonInvalidCode:
		return "invalid code"
	case ReasonUnsupportedPair:
		return "unsupported platform pair"
	case ReasonTransient:
		return "service unavailable, try again later"
	default:
		return "conversion failed"
	}
}

// MarshalText renders the reason phrase
func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Outcome is the result of one complete request. NewCode is set exactly when
// Reason is ReasonNone
type Outcome struct {
	Request Request
	NewCode string
	Reason  Reason
	Err     error
}

// Converted builds a successful outcome
func Converted(r Request, newCode string) Outcome { return Outcome{Request: r, NewCode: newCode} }

// Failed builds a failed outcome
func Failed(r Request, reason Reason, err error) Outcome {
	if reason == ReasonNone {
		reason = ReasonRejected
	}
	return Outcome{Request: r, Reason: reason, Err: err}
}

// OK reports whether the code was converted
func (o Outcome) OK() bool { return o.Reason == ReasonNone }
