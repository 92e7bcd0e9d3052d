package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exits main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(cfg *Configuration) {
	f, err := os.Open("config.yml")
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.XRPL.ScanDepth == 0 {
		cfg.XRPL.ScanDepth = DefaultScanDepth
	}
	if cfg.Bridge.DepositAttempts == 0 {
		cfg.Bridge.DepositAttempts = DefaultDepositAttempts
	}
	if cfg.Bridge.DepositDelaySec == 0 {
		cfg.Bridge.DepositDelaySec = DefaultDepositDelaySec
	}
	if cfg.Bridge.SettlementGraceSec == 0 {
		cfg.Bridge.SettlementGraceSec = DefaultSettlementGraceSec
	}
	if cfg.Bridge.ReceiptAttempts == 0 {
		cfg.Bridge.ReceiptAttempts = DefaultReceiptAttempts
	}
	if cfg.Bridge.ReceiptDelaySec == 0 {
		cfg.Bridge.ReceiptDelaySec = DefaultReceiptDelaySec
	}
	if cfg.Bridge.SwapSampleDelaySec == 0 {
		cfg.Bridge.SwapSampleDelaySec = DefaultSwapSampleDelaySec
	}
	if cfg.Bridge.RecoveryIntervalSec == 0 {
		cfg.Bridge.RecoveryIntervalSec = DefaultRecoveryInterval
	}
	if cfg.Bridge.RecoveryAgeSec == 0 {
		cfg.Bridge.RecoveryAgeSec = DefaultRecoveryAgeSec
	}
}

func Init() {
	readFile(&Config)
	readEnv(&Config)
	applyDefaults(&Config)
}
