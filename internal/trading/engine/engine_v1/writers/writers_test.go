package writers

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/stretchr/testify/suite"
)

type WritersTestSuite struct {
	suite.Suite
	tempDir string
}

func (s *WritersTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "writers_test_*")
	s.Require().NoError(err)
	s.tempDir = tempDir
}

func (s *WritersTestSuite) TearDownTest() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

func TestWritersTestSuite(t *testing.T) {
	suite.Run(t, new(WritersTestSuite))
}

func (s *WritersTestSuite) countParquetRows(path string) int {
	db, err := sql.Open("duckdb", "")
	s.Require().NoError(err)
	defer db.Close()

	var count int
	s.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + path + "')").Scan(&count))

	return count
}

func entry(success bool) OrderEntry {
	return OrderEntry{
		Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Request: types.OrderRequest{
			Symbol:          "SOLUSDT",
			Side:            types.SideLong,
			Quantity:        1.5,
			EntryPrice:      100,
			StopPrice:       99,
			TakeProfitPrice: 102,
		},
		Result: types.OrderResult{
			Success:  success,
			OrderID:  "42",
			AvgPrice: 100.1,
			Quantity: 1.5,
			Message:  "ok",
		},
	}
}

func fill(id int64, pnl float64) types.AccountTrade {
	return types.AccountTrade{
		ID:          id,
		OrderID:     id * 10,
		Symbol:      "SOLUSDT",
		Side:        types.PurchaseTypeSell,
		Price:       101,
		Quantity:    1,
		Commission:  0.04,
		Time:        time.Date(2024, 3, 1, 12, int(id), 0, 0, time.UTC),
		RealizedPnL: pnl,
	}
}

func (s *WritersTestSuite) TestOrdersWriter_Write_NotInitialized() {
	w := NewOrdersWriter(filepath.Join(s.tempDir, "orders.parquet"))

	err := w.Write(entry(true))
	s.Error(err)
	s.Contains(err.Error(), "writer not initialized")
}

func (s *WritersTestSuite) TestOrdersWriter_WriteExportsParquet() {
	outputPath := filepath.Join(s.tempDir, "2024-03-01", "run_1", "orders.parquet")
	w := NewOrdersWriter(outputPath)
	s.Require().NoError(w.Initialize())
	defer w.Close()

	s.Require().NoError(w.Write(entry(true)))
	s.Require().NoError(w.Write(entry(false)))

	count, err := w.GetOrderCount()
	s.Require().NoError(err)
	s.Equal(2, count)
	s.FileExists(outputPath)
	s.Equal(2, s.countParquetRows(outputPath))
	s.Equal(outputPath, w.GetOutputPath())
}

func (s *WritersTestSuite) TestOrdersWriter_ReopenKeepsRows() {
	outputPath := filepath.Join(s.tempDir, "orders.parquet")

	first := NewOrdersWriter(outputPath)
	s.Require().NoError(first.Initialize())
	s.Require().NoError(first.Write(entry(true)))
	s.Require().NoError(first.Close())

	second := NewOrdersWriter(outputPath)
	s.Require().NoError(second.Initialize())
	defer second.Close()
	s.Require().NoError(second.Write(entry(false)))

	count, err := second.GetOrderCount()
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *WritersTestSuite) TestOrdersWriter_CloseTwice() {
	w := NewOrdersWriter(filepath.Join(s.tempDir, "orders.parquet"))
	s.Require().NoError(w.Initialize())

	s.NoError(w.Close())
	s.NoError(w.Close())

	_, err := w.GetOrderCount()
	s.Error(err)
}

func (s *WritersTestSuite) TestFillsWriter_Write_NotInitialized() {
	w := NewFillsWriter(filepath.Join(s.tempDir, "fills.parquet"))

	err := w.Write([]types.AccountTrade{fill(1, 0)})
	s.Error(err)
	s.Contains(err.Error(), "writer not initialized")
}

func (s *WritersTestSuite) TestFillsWriter_DeduplicatesById() {
	outputPath := filepath.Join(s.tempDir, "fills.parquet")
	w := NewFillsWriter(outputPath)
	s.Require().NoError(w.Initialize())
	defer w.Close()

	s.Require().NoError(w.Write([]types.AccountTrade{fill(1, 0), fill(2, -1.5)}))
	s.Require().NoError(w.Write([]types.AccountTrade{fill(2, -1.5), fill(3, 2)}))

	count, err := w.GetFillCount()
	s.Require().NoError(err)
	s.Equal(3, count)
	s.Equal(3, s.countParquetRows(outputPath))
}

func (s *WritersTestSuite) TestFillsWriter_EmptyWriteSkipsExport() {
	outputPath := filepath.Join(s.tempDir, "fills.parquet")
	w := NewFillsWriter(outputPath)
	s.Require().NoError(w.Initialize())
	defer w.Close()

	s.Require().NoError(w.Write(nil))
	s.NoFileExists(outputPath)
}
