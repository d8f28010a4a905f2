package clock

import "time"

// Clock provides time to the application. Using an interface enables
// deterministic tests via a controllable implementation.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the cancellable periodic timer handle handed out by a Clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type System struct{}

func NewSystem() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }

func (System) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (st systemTicker) C() <-chan time.Time { return st.t.C }
func (st systemTicker) Stop()               { st.t.Stop() }
