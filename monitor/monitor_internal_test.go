package monitor

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/clustersim/engine"
)

type fakeTimeTeller struct{ tick engine.Tick }

func (f fakeTimeTeller) CurrentTime() engine.Tick { return f.tick }

type fakeRank struct {
	id       int
	finished bool
}

func (f fakeRank) RankID() int    { return f.id }
func (f fakeRank) Finished() bool { return f.finished }

var _ = Describe("Monitor", func() {
	It("reports the registered engine's current tick", func() {
		m := New()
		m.RegisterEngine(fakeTimeTeller{tick: 42})

		req := httptest.NewRequest(http.MethodGet, "/api/now", nil)
		rec := httptest.NewRecorder()
		m.now(rec, req)

		Expect(rec.Body.String()).To(Equal(`{"now_ns":42}`))
	})

	It("lists every registered rank's finished status", func() {
		m := New()
		m.RegisterRank(fakeRank{id: 0, finished: true})
		m.RegisterRank(fakeRank{id: 1, finished: false})

		req := httptest.NewRequest(http.MethodGet, "/api/ranks", nil)
		rec := httptest.NewRecorder()
		m.listRanks(rec, req)

		Expect(rec.Body.String()).To(Equal(
			`[{"rank":0,"finished":true},{"rank":1,"finished":false}]`))
	})
})
