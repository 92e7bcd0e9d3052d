package xrplrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"goxrpbridge/bridge"
)

// Client talks to a rippled node over its HTTP JSON-RPC interface. One
// instance holds the bridge custody credential; methods are safe for
// concurrent use, sequence assignment is delegated to the node's
// sign-and-submit autofill.
type Client struct {
	rpc            jsonrpc.RPCClient
	custodyAddress string
	custodySecret  string
	log            *logrus.Entry
}

func New(rpcURL, custodyAddress, custodySecret string, logger *logrus.Logger) *Client {
	return &Client{
		rpc: jsonrpc.NewClientWithOpts(rpcURL, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: 15 * time.Second},
		}),
		custodyAddress: custodyAddress,
		custodySecret:  custodySecret,
		log:            logger.WithField("component", "xrplrpc"),
	}
}

func (c *Client) CustodyAddress() string {
	return c.custodyAddress
}

// rippled expects params as a one-element array of request objects
func (c *Client) call(method string, params interface{}, out interface{}) error {
	resp, err := c.rpc.Call(method, []interface{}{params})
	if err != nil {
		return errors.Wrapf(err, "xrpl %s", method)
	}
	if resp.Error != nil {
		return errors.Errorf("xrpl %s: rpc error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if err := resp.GetObject(out); err != nil {
		return errors.Wrapf(err, "xrpl %s: decode result", method)
	}
	return nil
}

type resultStatus struct {
	Status       string `json:"status"`
	ErrorCode    string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

func (r resultStatus) failed() bool { return r.Status == "error" }

func (r resultStatus) err(method string) error {
	if r.ErrorMessage != "" {
		return errors.Errorf("xrpl %s: %s: %s", method, r.ErrorCode, r.ErrorMessage)
	}
	return errors.Errorf("xrpl %s: %s", method, r.ErrorCode)
}

// AccountBalance returns the account's XRP balance as a decimal XRP
// amount (converted from drops, never through a float).
func (c *Client) AccountBalance(_ context.Context, address string) (decimal.Decimal, error) {
	var res struct {
		resultStatus
		AccountData struct {
			Balance string `json:"Balance"`
		} `json:"account_data"`
	}
	err := c.call("account_info", map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
	}, &res)
	if err != nil {
		return decimal.Zero, err
	}
	if res.failed() {
		return decimal.Zero, res.err("account_info")
	}
	return DropsToXRP(res.AccountData.Balance)
}

// CurrentLedgerIndex returns the node's current in-progress ledger index.
func (c *Client) CurrentLedgerIndex(_ context.Context) (int64, error) {
	var res struct {
		resultStatus
		LedgerCurrentIndex int64 `json:"ledger_current_index"`
	}
	if err := c.call("ledger_current", map[string]interface{}{}, &res); err != nil {
		return 0, err
	}
	if res.failed() {
		return 0, res.err("ledger_current")
	}
	return res.LedgerCurrentIndex, nil
}

type accountTx struct {
	Meta struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
	Tx struct {
		TransactionType string          `json:"TransactionType"`
		Account         string          `json:"Account"`
		Destination     string          `json:"Destination"`
		Amount          json.RawMessage `json:"Amount"`
		Hash            string          `json:"hash"`
		LedgerIndex     int64           `json:"ledger_index"`
	} `json:"tx"`
	Validated bool `json:"validated"`
}

// RecentTransactions lists validated transactions touching address with
// ledger index >= sinceLedger, oldest first. Non-XRP (issued currency)
// payments carry an object amount and are reported with an empty Amount.
func (c *Client) RecentTransactions(_ context.Context, address string, sinceLedger int64) ([]bridge.LedgerTx, error) {
	var res struct {
		resultStatus
		Transactions []accountTx `json:"transactions"`
	}
	err := c.call("account_tx", map[string]interface{}{
		"account":          address,
		"ledger_index_min": sinceLedger,
		"ledger_index_max": -1,
		"binary":           false,
		"forward":          true,
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.failed() {
		return nil, res.err("account_tx")
	}

	txs := make([]bridge.LedgerTx, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		amount := ""
		var drops string
		if json.Unmarshal(t.Tx.Amount, &drops) == nil {
			xrp, err := DropsToXRP(drops)
			if err == nil {
				amount = xrp.String()
			}
		}
		txs = append(txs, bridge.LedgerTx{
			Hash:        t.Tx.Hash,
			Type:        t.Tx.TransactionType,
			Sender:      t.Tx.Account,
			Destination: t.Tx.Destination,
			Amount:      amount,
			LedgerIndex: t.Tx.LedgerIndex,
			Validated:   t.Validated && t.Meta.TransactionResult == "tesSUCCESS",
		})
	}
	return txs, nil
}

// TransactionByHash looks up a transaction; (nil, nil) means the node
// does not know it (yet).
func (c *Client) TransactionByHash(_ context.Context, hash string) (*bridge.LedgerTxResult, error) {
	var res struct {
		resultStatus
		Hash      string `json:"hash"`
		Validated bool   `json:"validated"`
		Meta      struct {
			TransactionResult string `json:"TransactionResult"`
		} `json:"meta"`
	}
	err := c.call("tx", map[string]interface{}{
		"transaction": hash,
		"binary":      false,
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.failed() {
		if res.ErrorCode == "txnNotFound" {
			return nil, nil
		}
		return nil, res.err("tx")
	}
	return &bridge.LedgerTxResult{
		Hash:      res.Hash,
		Validated: res.Validated,
		Success:   res.Meta.TransactionResult == "tesSUCCESS",
	}, nil
}

// SubmitPayment signs and submits an XRP payment through the node's
// sign-and-submit mode, which autofills sequence and fee. An empty
// secret means the custody wallet pays.
func (c *Client) SubmitPayment(_ context.Context, secret, sender, destination, amount string) (string, error) {
	if secret == "" {
		secret = c.custodySecret
		sender = c.custodyAddress
	}
	if secret == "" {
		return "", errors.New("xrpl custody secret not configured")
	}

	drops, err := XRPToDrops(amount)
	if err != nil {
		return "", err
	}

	var res struct {
		resultStatus
		EngineResult        string `json:"engine_result"`
		EngineResultMessage string `json:"engine_result_message"`
		TxJSON              struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	err = c.call("submit", map[string]interface{}{
		"secret": secret,
		"tx_json": map[string]interface{}{
			"TransactionType": "Payment",
			"Account":         sender,
			"Destination":     destination,
			"Amount":          drops,
		},
	}, &res)
	if err != nil {
		return "", err
	}
	if res.failed() {
		return "", res.err("submit")
	}
	// tes = applied, ter = queued for a later ledger; anything else never
	// makes it into a validated ledger
	if !strings.HasPrefix(res.EngineResult, "tes") && !strings.HasPrefix(res.EngineResult, "ter") {
		return "", errors.Errorf("xrpl submit: %s: %s", res.EngineResult, res.EngineResultMessage)
	}

	c.log.WithFields(logrus.Fields{
		"txHash":       res.TxJSON.Hash,
		"engineResult": res.EngineResult,
		"destination":  destination,
		"amount":       amount,
	}).Info("XRPL payment submitted")
	return res.TxJSON.Hash, nil
}
