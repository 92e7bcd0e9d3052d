package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
	"goxrpbridge/config"
	"goxrpbridge/evmrpc"
	"goxrpbridge/redis"
	"goxrpbridge/swaprpc"
	"goxrpbridge/workers"
	"goxrpbridge/workers/handlers"
	"goxrpbridge/xrplrpc"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	logger.Info("starting XRPL/EVM bridge")

	config.Init()

	// connect to Redis, without persistence do not continue
	store := redis.New(logger)
	if err := store.Ping(); err != nil {
		logger.WithError(err).Fatal("cannot reach Redis")
	}

	ledger := xrplrpc.New(config.Config.XRPL.RPCURL, config.Config.XRPL.CustodyAddress, config.Config.XRPL.CustodySecret, logger)

	dest, err := evmrpc.New(config.Config.EVM.ChainID, config.Config.EVM.RPCList, config.Config.EVM.PrivateKey, logger)
	if err != nil {
		logger.WithError(err).Fatal("cannot initialize EVM client")
	}

	// the swap leg is optional; without a contract address autoSwap
	// requests complete unswapped
	var swap bridge.SwapGateway
	if config.Config.Swap.ContractAddress != "" {
		gateway, err := swaprpc.New(config.Config.EVM.ChainID, config.Config.EVM.RPCList,
			config.Config.Swap.ContractAddress, config.Config.Swap.PrivateKey, logger)
		if err != nil {
			logger.WithError(err).Fatal("cannot initialize swap gateway")
		}
		swap = gateway
	} else {
		logger.Warn("no swap contract configured, auto-swap disabled")
	}

	probeBalances(ledger, dest, logger)

	svc := bridge.New(store, ledger, dest, swap, bridge.PoliciesFromConfig(), config.Config.XRPL.ScanDepth, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := handlers.New(svc, ledger, dest, logger)

	go workers.Worker_Recovery(ctx, svc, store, logger)

	workers.Worker_HTTP(h, logger)

	cancel()
	svc.Shutdown()
}

// probeBalances logs the custody balances on both chains at startup.
// Failures are warnings only; public RPC endpoints flake.
func probeBalances(ledger bridge.SourceLedger, dest bridge.DestinationChain, logger *logrus.Logger) {
	ctx := context.Background()

	if balance, err := ledger.AccountBalance(ctx, ledger.CustodyAddress()); err != nil {
		logger.WithError(err).Warn("cannot fetch XRPL custody balance")
	} else {
		logger.WithField("balance", balance.String()).Info("XRPL custody balance")
	}

	if balance, err := dest.Balance(ctx, config.Config.EVM.PublicAddress); err != nil {
		logger.WithError(err).Warn("cannot fetch EVM custody balance")
	} else {
		logger.WithField("balance", balance.String()).Info("EVM custody balance")
	}
}
