package evmrpc

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"goxrpbridge/bridge"
)

const nativeTransferGas = 21000

// Client is the XRP EVM sidechain custody client. It signs native-coin
// payouts with the bridge's destination key; prepare-and-submit is
// serialized under sendMu so concurrent requests never collide on a
// nonce, while receipt polling stays lock-free.
type Client struct {
	chainID *big.Int
	rpcURLs []string
	key     *ecdsa.PrivateKey
	address common.Address
	log     *logrus.Entry

	sendMu sync.Mutex
}

func New(chainID int64, rpcURLs []string, privateKeyHex string, logger *logrus.Logger) (*Client, error) {
	c := &Client{
		chainID: big.NewInt(chainID),
		rpcURLs: rpcURLs,
		log:     logger.WithField("component", "evmrpc"),
	}
	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(privateKeyHex)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "bad EVM private key")
		}
		c.key = key
		c.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// CustodyAddress is the sidechain account funds are paid out from.
func (c *Client) CustodyAddress() string {
	return c.address.Hex()
}

// withClient runs f against each configured RPC endpoint until one
// answers, mirroring a best-effort failover across public nodes.
func withClient[T any](urls []string, log *logrus.Entry, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	for _, url := range urls {
		var client *ethclient.Client
		client, err = ethclient.Dial(url)
		if err != nil {
			log.WithField("url", url).WithError(err).Warn("EVM RPC dial failed")
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	if err == nil {
		err = pkgerrors.New("no EVM RPC endpoints configured")
	}
	return
}

// SubmitPayment sends a native-coin transfer of amount XRP to
// destination. The decimal amount is shifted to wei exactly; sub-wei
// precision is rejected, never rounded.
func (c *Client) SubmitPayment(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	if c.key == nil {
		return "", pkgerrors.New("EVM custody key not configured")
	}

	wei, err := XRPToWei(amount)
	if err != nil {
		return "", err
	}
	to := common.HexToAddress(destination)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	hash, err := withClient(c.rpcURLs, c.log, func(client *ethclient.Client) (string, error) {
		nonce, err := client.PendingNonceAt(ctx, c.address)
		if err != nil {
			return "", pkgerrors.Wrap(err, "get nonce")
		}

		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return "", pkgerrors.Wrap(err, "suggest gas price")
		}

		tx := ethtypes.NewTransaction(nonce, to, wei, nativeTransferGas, gasPrice, nil)
		signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(c.chainID), c.key)
		if err != nil {
			return "", pkgerrors.Wrap(err, "sign transaction")
		}

		if err := client.SendTransaction(ctx, signed); err != nil {
			return "", pkgerrors.Wrap(err, "send transaction")
		}
		return signed.Hash().Hex(), nil
	})
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"txHash": hash,
		"to":     destination,
		"amount": amount.String(),
	}).Info("EVM payment submitted")
	return hash, nil
}

// Receipt returns the inclusion receipt for a transaction, or (nil, nil)
// while it is still pending.
func (c *Client) Receipt(ctx context.Context, txHash string) (*bridge.Receipt, error) {
	return withClient(c.rpcURLs, c.log, func(client *ethclient.Client) (*bridge.Receipt, error) {
		r, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, nil
			}
			return nil, pkgerrors.Wrap(err, "get receipt")
		}
		return &bridge.Receipt{Success: r.Status == ethtypes.ReceiptStatusSuccessful}, nil
	})
}

// Balance returns the address's native balance as decimal XRP.
func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return withClient(c.rpcURLs, c.log, func(client *ethclient.Client) (decimal.Decimal, error) {
		wei, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(err, "get balance")
		}
		return WeiToXRP(wei), nil
	})
}
