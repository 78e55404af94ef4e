package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestMetricsTestSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) SetupTest() {
	suite.server = httptest.NewServer(NewRouter(func() types.LiveStatus {
		return types.LiveStatus{
			Symbol:       "BTCUSDT",
			Timeframe:    "5m",
			Running:      true,
			DailyLoss:    12.5,
			OpenPosition: optional.None[types.Position](),
			Polls:        3,
		}
	}))
}

func (suite *MetricsTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *MetricsTestSuite) TestCountersAreRegistered() {
	PollsTotal.WithLabelValues("BTCUSDT").Inc()
	RejectionsTotal.WithLabelValues("BTCUSDT", "daily loss cap").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	suite.Require().NoError(err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}

	suite.True(names["scalper_polls_total"])
	suite.True(names["scalper_rejections_total"])
}

func (suite *MetricsTestSuite) TestOrdersCounter() {
	before := testutil.ToFloat64(OrdersTotal.WithLabelValues("ETHUSDT", "LONG", "filled"))
	OrdersTotal.WithLabelValues("ETHUSDT", "LONG", "filled").Inc()
	suite.Equal(before+1, testutil.ToFloat64(OrdersTotal.WithLabelValues("ETHUSDT", "LONG", "filled")))
}

func (suite *MetricsTestSuite) TestMetricsEndpoint() {
	PollsTotal.WithLabelValues("BTCUSDT").Inc()

	resp, err := http.Get(suite.server.URL + "/metrics")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), "scalper_polls_total")
}

func (suite *MetricsTestSuite) TestStatusEndpoint() {
	resp, err := http.Get(suite.server.URL + "/status")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("application/json", resp.Header.Get("Content-Type"))

	var status map[string]any
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	suite.Equal("BTCUSDT", status["symbol"])
	suite.Equal(true, status["running"])
	suite.Equal(12.5, status["daily_loss"])
	suite.Nil(status["open_position"])
}

func (suite *MetricsTestSuite) TestStatusRejectsPost() {
	resp, err := http.Post(suite.server.URL+"/status", "application/json", nil)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (suite *MetricsTestSuite) TestServe() {
	srv := Serve("127.0.0.1:0", func() types.LiveStatus { return types.LiveStatus{} })
	suite.NotNil(srv)
	suite.NoError(srv.Close())
}
