package openapi

// EventName identifies one of the native events fired by the control.
type EventName string

const (
	// OnReceiveTrData delivers the response to a CommRqData request.
	// The first positional argument selects the handlers.
	OnReceiveTrData EventName = "OnReceiveTrData"
	// OnReceiveRealData delivers a streaming tick.
	// The second positional argument (real-data type) selects the handlers.
	OnReceiveRealData EventName = "OnReceiveRealData"
	// OnReceiveMsg carries a server message about a request or order.
	OnReceiveMsg EventName = "OnReceiveMsg"
	// OnReceiveChejanData delivers order fills and balance changes.
	OnReceiveChejanData EventName = "OnReceiveChejanData"
	// OnEventConnect reports the login result as an error code.
	OnEventConnect EventName = "OnEventConnect"
)

var eventNames = []EventName{
	OnReceiveTrData,
	OnReceiveRealData,
	OnReceiveMsg,
	OnReceiveChejanData,
	OnEventConnect,
}

// Events returns every supported event in a stable order.
func Events() []EventName {
	return append([]EventName(nil), eventNames...)
}

// Valid reports whether e is one of the supported events.
func (e EventName) Valid() bool {
	for _, name := range eventNames {
		if name == e {
			return true
		}
	}
	return false
}

func (e EventName) String() string { return string(e) }

// keyed reports whether handlers of this event are grouped by a second-level key.
func (e EventName) keyed() bool {
	return e == OnReceiveTrData || e == OnReceiveRealData
}

// RealType is the real-data category carried by OnReceiveRealData.
type RealType string

const (
	RealOptionQuote RealType = "해외옵션호가"
	RealOptionTick  RealType = "해외옵션시세"
	RealFutureQuote RealType = "해외선물호가"
	RealFutureTick  RealType = "해외선물시세"
)

var realTypes = []RealType{
	RealOptionQuote,
	RealOptionTick,
	RealFutureQuote,
	RealFutureTick,
}

// RealTypes returns the closed set of real-data categories.
func RealTypes() []RealType {
	return append([]RealType(nil), realTypes...)
}

// Valid reports whether r belongs to the closed real-data set.
func (r RealType) Valid() bool {
	for _, rt := range realTypes {
		if rt == r {
			return true
		}
	}
	return false
}

func (r RealType) String() string { return string(r) }
