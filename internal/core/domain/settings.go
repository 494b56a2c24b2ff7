package domain

// Admin setting keys. Settings are flat key-value rows read fresh on every
// pricing computation, so a change takes effect on the very next order.
const (
	SettingProfitMargin     = "profit_margin"          // percent markup on wholesale cost
	SettingExchangeRate     = "exchange_rate"          // foreign wholesale currency -> local
	SettingCryptoGasFee     = "crypto_gas_fee_percent" // surcharge on crypto deposits
	SettingWalletAddrPrefix = "wallet_address_"        // + method, e.g. wallet_address_btc
)
