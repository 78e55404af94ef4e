package tradingprovider

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BinanceConfigTestSuite struct {
	suite.Suite
}

func TestBinanceConfigTestSuite(t *testing.T) {
	suite.Run(t, new(BinanceConfigTestSuite))
}

func (suite *BinanceConfigTestSuite) TestParseBinanceConfig_Valid() {
	config, err := parseBinanceConfig(`{"apiKey": "test-api-key", "secretKey": "test-secret-key", "baseUrl": "http://127.0.0.1:9000"}`)
	suite.NoError(err)
	suite.Equal("test-api-key", config.ApiKey)
	suite.Equal("test-secret-key", config.SecretKey)
	suite.Equal("http://127.0.0.1:9000", config.BaseURL)
}

func (suite *BinanceConfigTestSuite) TestParseBinanceConfig_MissingApiKey() {
	config, err := parseBinanceConfig(`{"secretKey": "test-secret-key"}`)
	suite.Error(err)
	suite.Nil(config)
	suite.Contains(err.Error(), "invalid binance provider config")
}

func (suite *BinanceConfigTestSuite) TestParseBinanceConfig_InvalidJSON() {
	config, err := parseBinanceConfig(`{invalid json}`)
	suite.Error(err)
	suite.Nil(config)
	suite.Contains(err.Error(), "failed to parse binance config")
}

func (suite *BinanceConfigTestSuite) TestValidate() {
	config := BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}
	suite.NoError(config.Validate())

	empty := BinanceProviderConfig{}
	suite.Error(empty.Validate())
}
