package payment

import "net/url"

// SignalKind tags the three possible readings of a return URL.
type SignalKind int

const (
	// SignalNone means no payment marker is present: a normal page load,
	// never a cancellation. Must cause no side effect.
	SignalNone SignalKind = iota
	SignalSuccess
	SignalCancelled
)

func (k SignalKind) String() string {
	switch k {
	case SignalSuccess:
		return "success"
	case SignalCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Signal is the parsed return-URL contract: ?payment=success&mc=<id>&token=<t>
// or ?payment=cancelled&token=<t>.
type Signal struct {
	Kind        SignalKind
	AuthorityID string
	Token       string
}

// ParseSignal reads the return signal from query parameters. Unrecognized
// values of the payment marker are treated as no signal.
func ParseSignal(q url.Values) Signal {
	switch q.Get("payment") {
	case "success":
		return Signal{
			Kind:        SignalSuccess,
			AuthorityID: q.Get("mc"),
			Token:       q.Get("token"),
		}
	case "cancelled":
		return Signal{
			Kind:  SignalCancelled,
			Token: q.Get("token"),
		}
	default:
		return Signal{Kind: SignalNone}
	}
}
