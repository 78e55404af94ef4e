package tradingprovider

import (
	"testing"

	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/stretchr/testify/suite"
)

type TradingSystemProviderTestSuite struct {
	suite.Suite
}

func TestTradingSystemProviderSuite(t *testing.T) {
	suite.Run(t, new(TradingSystemProviderTestSuite))
}

// Unit Tests - Provider Registry

func (suite *TradingSystemProviderTestSuite) TestGetSupportedProviders() {
	providers := GetSupportedProviders()
	suite.Equal([]string{"binance-live", "binance-paper"}, providers)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinancePaper() {
	info, err := GetProviderInfo("binance-paper")
	suite.NoError(err)
	suite.Equal("binance-paper", info.Name)
	suite.Equal("Binance Futures Testnet", info.DisplayName)
	suite.True(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_BinanceLive() {
	info, err := GetProviderInfo("binance-live")
	suite.NoError(err)
	suite.Equal("binance-live", info.Name)
	suite.False(info.IsPaperTrading)
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderInfo_Unsupported() {
	_, err := GetProviderInfo("unsupported-provider")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestProviderForTestnet() {
	suite.Equal(ProviderBinancePaper, ProviderForTestnet(true))
	suite.Equal(ProviderBinanceLive, ProviderForTestnet(false))
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema() {
	for _, name := range []string{"binance-paper", "binance-live"} {
		schema, err := GetProviderConfigSchema(name)
		suite.NoError(err)
		suite.Contains(schema, "apiKey")
		suite.Contains(schema, "secretKey")
		suite.Contains(schema, "baseUrl")
	}
}

func (suite *TradingSystemProviderTestSuite) TestGetProviderConfigSchema_Unsupported() {
	_, err := GetProviderConfigSchema("unsupported-provider")
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}

func (suite *TradingSystemProviderTestSuite) TestParseProviderConfig() {
	tests := []struct {
		name        string
		provider    string
		json        string
		expectError string
	}{
		{"paper", "binance-paper", `{"apiKey": "k", "secretKey": "s"}`, ""},
		{"live", "binance-live", `{"apiKey": "k", "secretKey": "s", "baseUrl": "http://localhost"}`, ""},
		{"unsupported", "unsupported-provider", "{}", "unsupported trading provider"},
		{"empty provider", "", `{"apiKey": "k", "secretKey": "s"}`, "unsupported trading provider"},
		{"invalid json", "binance-paper", "{invalid json}", "failed to parse binance config"},
		{"empty json", "binance-live", "{}", "invalid binance provider config"},
		{"missing secret", "binance-paper", `{"apiKey": "k"}`, "invalid binance provider config"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config, err := ParseProviderConfig(tc.provider, tc.json)
			if tc.expectError != "" {
				suite.Error(err)
				suite.Contains(err.Error(), tc.expectError)

				return
			}

			suite.NoError(err)
			suite.Equal("k", config.ApiKey)
			suite.Equal("s", config.SecretKey)
		})
	}
}

// Unit Tests - NewExecutionClient

func (suite *TradingSystemProviderTestSuite) TestNewExecutionClient() {
	config := BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
		BaseURL:   "",
	}

	for _, providerType := range []ProviderType{ProviderBinancePaper, ProviderBinanceLive} {
		client, err := NewExecutionClient(providerType, config, DefaultRetryPolicy(), logger.NewNopLogger())
		suite.NoError(err)
		suite.NotNil(client)
	}
}

func (suite *TradingSystemProviderTestSuite) TestNewExecutionClient_InvalidConfig() {
	_, err := NewExecutionClient(ProviderBinancePaper, BinanceProviderConfig{}, DefaultRetryPolicy(), logger.NewNopLogger())
	suite.Error(err)
	suite.Contains(err.Error(), "invalid binance provider config")
}

func (suite *TradingSystemProviderTestSuite) TestNewExecutionClient_Unsupported() {
	config := BinanceProviderConfig{
		ApiKey:    "test-api-key",
		SecretKey: "test-secret-key",
	}

	_, err := NewExecutionClient("", config, DefaultRetryPolicy(), logger.NewNopLogger())
	suite.Error(err)
	suite.Contains(err.Error(), "unsupported trading provider")
}
