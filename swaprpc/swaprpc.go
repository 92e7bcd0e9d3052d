package swaprpc

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
	"goxrpbridge/evmrpc"
)

// Staking contract surface, as deployed on the sidechain.
const swapABIJSON = `[
  {"type":"function","name":"swapAndStake","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"getWbtcAddress","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
  {"type":"function","name":"getATokenAddress","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
  {"type":"function","name":"calculateReward","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"type":"uint256"},{"type":"uint256"}]},
  {"type":"function","name":"interestRate","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
  {"type":"function","name":"XRP_USD_PRICE","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
  {"type":"function","name":"BTC_USD_PRICE","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`

const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]}
]`

const wbtcDecimals = 8

// Gateway drives the on-chain swap-and-stake contract that turns
// bridged XRP into staked WBTC and reports accrued rewards.
type Gateway struct {
	chainID  *big.Int
	rpcURLs  []string
	contract common.Address
	key      *ecdsa.PrivateKey
	address  common.Address
	swapABI  abi.ABI
	erc20ABI abi.ABI
	log      *logrus.Entry

	sendMu sync.Mutex
}

func New(chainID int64, rpcURLs []string, contractAddress, privateKeyHex string, logger *logrus.Logger) (*Gateway, error) {
	swapABI, err := abi.JSON(strings.NewReader(swapABIJSON))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse swap ABI")
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parse ERC20 ABI")
	}

	g := &Gateway{
		chainID:  big.NewInt(chainID),
		rpcURLs:  rpcURLs,
		contract: common.HexToAddress(contractAddress),
		swapABI:  swapABI,
		erc20ABI: erc20ABI,
		log:      logger.WithField("component", "swaprpc"),
	}
	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(privateKeyHex)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "bad swap private key")
		}
		g.key = key
		g.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return g, nil
}

func (g *Gateway) withClient(f func(client *ethclient.Client) error) (err error) {
	for _, url := range g.rpcURLs {
		var client *ethclient.Client
		client, err = ethclient.Dial(url)
		if err != nil {
			g.log.WithField("url", url).WithError(err).Warn("swap RPC dial failed")
			continue
		}

		err = f(client)
		client.Close()
		if err == nil {
			return nil
		}
	}
	if err == nil {
		err = pkgerrors.New("no swap RPC endpoints configured")
	}
	return err
}

func (g *Gateway) callView(ctx context.Context, contract common.Address, callABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := callABI.Pack(method, args...)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "pack %s", method)
	}

	var out []interface{}
	err = g.withClient(func(client *ethclient.Client) error {
		raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
		if err != nil {
			return pkgerrors.Wrapf(err, "call %s", method)
		}
		out, err = callABI.Unpack(method, raw)
		return pkgerrors.Wrapf(err, "unpack %s", method)
	})
	return out, err
}

// StakeAndSwap sends amount XRP to the contract's payable swapAndStake
// for the benefit of the stake key's account. Returns the tx hash.
func (g *Gateway) StakeAndSwap(ctx context.Context, amount decimal.Decimal) (string, error) {
	if g.key == nil {
		return "", pkgerrors.New("swap key not configured")
	}

	wei, err := evmrpc.XRPToWei(amount)
	if err != nil {
		return "", err
	}
	input, err := g.swapABI.Pack("swapAndStake")
	if err != nil {
		return "", pkgerrors.Wrap(err, "pack swapAndStake")
	}

	g.sendMu.Lock()
	defer g.sendMu.Unlock()

	var txHash string
	err = g.withClient(func(client *ethclient.Client) error {
		nonce, err := client.PendingNonceAt(ctx, g.address)
		if err != nil {
			return pkgerrors.Wrap(err, "get nonce")
		}

		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "suggest gas price")
		}

		gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From:  g.address,
			To:    &g.contract,
			Value: wei,
			Data:  input,
		})
		if err != nil {
			return pkgerrors.Wrap(err, "estimate gas")
		}
		gasLimit = gasLimit * 12 / 10

		tx := ethtypes.NewTransaction(nonce, g.contract, wei, gasLimit, gasPrice, input)
		signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(g.chainID), g.key)
		if err != nil {
			return pkgerrors.Wrap(err, "sign transaction")
		}

		if err := client.SendTransaction(ctx, signed); err != nil {
			return pkgerrors.Wrap(err, "send transaction")
		}
		txHash = signed.Hash().Hex()
		return nil
	})
	if err != nil {
		return "", err
	}

	g.log.WithFields(logrus.Fields{
		"txHash": txHash,
		"amount": amount.String(),
	}).Info("swap-and-stake submitted")
	return txHash, nil
}

func (g *Gateway) tokenAddress(ctx context.Context, getter string) (common.Address, error) {
	out, err := g.callView(ctx, g.contract, g.swapABI, getter)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, pkgerrors.Errorf("%s returned unexpected type", getter)
	}
	return addr, nil
}

func (g *Gateway) tokenBalance(ctx context.Context, token common.Address, owner string) (decimal.Decimal, error) {
	out, err := g.callView(ctx, token, g.erc20ABI, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return decimal.Zero, err
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, pkgerrors.New("balanceOf returned unexpected type")
	}
	return decimal.NewFromBigInt(raw, 0).Shift(-wbtcDecimals), nil
}

// WBTCBalance is the address's liquid WBTC balance.
func (g *Gateway) WBTCBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	token, err := g.tokenAddress(ctx, "getWbtcAddress")
	if err != nil {
		return decimal.Zero, err
	}
	return g.tokenBalance(ctx, token, address)
}

// StakedBalance is the address's staked WBTC, read from the aToken.
func (g *Gateway) StakedBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	token, err := g.tokenAddress(ctx, "getATokenAddress")
	if err != nil {
		return decimal.Zero, err
	}
	return g.tokenBalance(ctx, token, address)
}

// RewardAccrual is the contract-reported accrued reward for address,
// as WBTC (8 decimals) and XRP (18 decimals).
func (g *Gateway) RewardAccrual(ctx context.Context, address string) (*bridge.RewardAccrual, error) {
	out, err := g.callView(ctx, g.contract, g.swapABI, "calculateReward", common.HexToAddress(address))
	if err != nil {
		return nil, err
	}
	wbtc, ok1 := out[0].(*big.Int)
	xrp, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return nil, pkgerrors.New("calculateReward returned unexpected types")
	}
	return &bridge.RewardAccrual{
		WBTC: decimal.NewFromBigInt(wbtc, 0).Shift(-wbtcDecimals),
		XRP:  decimal.NewFromBigInt(xrp, 0).Shift(-18),
	}, nil
}

func (g *Gateway) uintView(ctx context.Context, method string) (*big.Int, error) {
	out, err := g.callView(ctx, g.contract, g.swapABI, method)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, pkgerrors.Errorf("%s returned unexpected type", method)
	}
	return v, nil
}

// InterestRateBps is the contract's annual interest rate in basis points.
func (g *Gateway) InterestRateBps(ctx context.Context) (int64, error) {
	rate, err := g.uintView(ctx, "interestRate")
	if err != nil {
		return 0, err
	}
	return rate.Int64(), nil
}

// PriceRatio returns the contract's fixed USD quotes for XRP and BTC.
func (g *Gateway) PriceRatio(ctx context.Context) (*bridge.PriceRatio, error) {
	xrpUSD, err := g.uintView(ctx, "XRP_USD_PRICE")
	if err != nil {
		return nil, err
	}
	btcUSD, err := g.uintView(ctx, "BTC_USD_PRICE")
	if err != nil {
		return nil, err
	}
	return &bridge.PriceRatio{
		XRPUSD: decimal.NewFromBigInt(xrpUSD, 0),
		BTCUSD: decimal.NewFromBigInt(btcUSD, 0),
	}, nil
}
