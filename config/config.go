package config

type Configuration struct {
	// Server config
	Server struct {
		Port      int    `yaml:"port"`
		UseSSL    bool   `yaml:"ssl"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
	} `yaml:"server"`
	// XRPL-related config
	XRPL struct {
		RPCURL string `yaml:"rpc_url"`
		// custody account receiving user deposits
		CustodyAddress string `yaml:"custody_address"`
		// important private stuff
		CustodySecret string `yaml:"custody_secret"`
		// how many ledgers back watch-mode deposit detection looks
		ScanDepth int64 `yaml:"scan_depth"`
	} `yaml:"XRPL"`
	// EVM sidechain config
	EVM struct {
		ChainID       int64    `yaml:"chain_id"`
		RPCList       []string `yaml:"rpc_list"`
		PublicAddress string   `yaml:"address"`
		PrivateKey    string   `yaml:"private_key"`
	} `yaml:"EVM"`
	// stake-swap contract config, empty address disables auto swap
	Swap struct {
		ContractAddress string `yaml:"contract_address"`
		PrivateKey      string `yaml:"private_key"`
	} `yaml:"swap"`
	// orchestration timing knobs, all bounded
	Bridge struct {
		DepositAttempts     int `yaml:"deposit_attempts"`
		DepositDelaySec     int `yaml:"deposit_delay_sec"`
		SettlementGraceSec  int `yaml:"settlement_grace_sec"`
		ReceiptAttempts     int `yaml:"receipt_attempts"`
		ReceiptDelaySec     int `yaml:"receipt_delay_sec"`
		SwapSampleDelaySec  int `yaml:"swap_sample_delay_sec"`
		RecoveryIntervalSec int `yaml:"recovery_interval_sec"`
		RecoveryAgeSec      int `yaml:"recovery_age_sec"`
	} `yaml:"bridge"`
}

var Config Configuration

// defaults applied when the yaml leaves a knob at zero
const (
	DefaultPort               = 8080
	DefaultScanDepth          = 10
	DefaultDepositAttempts    = 20
	DefaultDepositDelaySec    = 15
	DefaultSettlementGraceSec = 5
	DefaultReceiptAttempts    = 30
	DefaultReceiptDelaySec    = 2
	DefaultSwapSampleDelaySec = 5
	DefaultRecoveryInterval   = 60
	DefaultRecoveryAgeSec     = 300
)
