// Package monitor exposes a read-only HTTP view of a running simulation:
// the engine's current tick and each rank's finished status. It is
// trimmed from a teacher that also serves a full control-and-profiling
// web UI — this domain has no interactive GUI to drive, so only the
// status routes survive.
package monitor

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sarchlab/clustersim/engine"
)

// RankStatus is satisfied by a component the monitor can report on —
// workload.Engine implements it.
type RankStatus interface {
	RankID() int
	Finished() bool
}

// Monitor serves a simulation's status over HTTP.
type Monitor struct {
	timeTeller engine.TimeTeller
	ranks      []RankStatus
	portNumber int
}

// New returns a Monitor with no ranks registered yet.
func New() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the monitor listens on; a port below 1000
// is rejected in favor of an OS-assigned one, since low ports usually
// require privileges this process should not need.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"monitor: port %d is not allowed, using a random port instead\n",
			portNumber)
		portNumber = 0
	}
	m.portNumber = portNumber
	return m
}

// RegisterEngine records the engine whose current tick /api/now reports.
func (m *Monitor) RegisterEngine(e engine.TimeTeller) {
	m.timeTeller = e
}

// RegisterRank adds a rank's status to what /api/ranks reports.
func (m *Monitor) RegisterRank(r RankStatus) {
	m.ranks = append(m.ranks, r)
}

// StartServer starts the monitor's HTTP server in the background and
// returns once it is listening.
func (m *Monitor) StartServer() error {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/ranks", m.listRanks)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "monitoring simulation at http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		_ = http.Serve(listener, r)
	}()

	return nil
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	var now engine.Tick
	if m.timeTeller != nil {
		now = m.timeTeller.CurrentTime()
	}
	fmt.Fprintf(w, `{"now_ns":%d}`, int64(now))
}

func (m *Monitor) listRanks(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, r := range m.ranks {
		if i > 0 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintf(w, `{"rank":%d,"finished":%t}`, r.RankID(), r.Finished())
	}
	fmt.Fprint(w, "]")
}
