package nodeclient

import (
	"context"

	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/modules"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// getWalletSyncDataRequest/-Response mirror the wire protocol named in
// spec §6 for the block-fetch call at the center of the Block Acquisition
// Pipeline (spec §4.1).
type getWalletSyncDataRequest struct {
	BlockHashCheckpoints []crypto.Hash     `json:"blockHashCheckpoints"`
	StartHeight          types.BlockHeight `json:"startHeight"`
	StartTimestamp       types.BlockHeight `json:"startTimestamp"`
	BlockCount           int               `json:"blockCount"`
}

type wireRawTx struct {
	Hash        crypto.Hash      `json:"hash"`
	PublicKey   crypto.Point     `json:"publicKey"`
	UnlockTime  uint64           `json:"unlockTime"`
	PaymentID   string           `json:"paymentId"`
	KeyOutputs  []wireKeyOutput  `json:"keyOutputs"`
	KeyInputs   []wireKeyInput   `json:"keyInputs"`
}

type wireKeyOutput struct {
	Key         crypto.Point `json:"key"`
	Amount      uint64       `json:"amount"`
	GlobalIndex *uint64      `json:"globalIndex,omitempty"`
}

type wireKeyInput struct {
	Amount   uint64       `json:"amount"`
	KeyImage crypto.Point `json:"keyImage"`
}

type wireBlock struct {
	Height       types.BlockHeight `json:"height"`
	Hash         crypto.Hash       `json:"hash"`
	Timestamp    uint64            `json:"timestamp"`
	Coinbase     *wireRawTx        `json:"coinbaseTransaction"`
	Transactions []wireRawTx       `json:"transactions"`
}

type getWalletSyncDataResponse struct {
	Status       string      `json:"status"`
	Items        []wireBlock `json:"items"`
	TopBlock     *wireBlock  `json:"topBlock"`
}

func wireToRawTx(w wireRawTx) types.RawTx {
	tx := types.RawTx{
		Hash:       w.Hash,
		PublicKey:  w.PublicKey,
		UnlockTime: w.UnlockTime,
		PaymentID:  w.PaymentID,
	}
	for _, o := range w.KeyOutputs {
		tx.KeyOutputs = append(tx.KeyOutputs, types.KeyOutput{Key: o.Key, Amount: o.Amount, GlobalIndex: o.GlobalIndex})
	}
	for _, in := range w.KeyInputs {
		tx.KeyInputs = append(tx.KeyInputs, types.KeyInput{Amount: in.Amount, KeyImage: in.KeyImage})
	}
	return tx
}

func wireToBlock(w wireBlock) types.Block {
	b := types.Block{Height: w.Height, Hash: w.Hash, Timestamp: w.Timestamp}
	if w.Coinbase != nil {
		cb := wireToRawTx(*w.Coinbase)
		b.Coinbase = &cb
	}
	for _, t := range w.Transactions {
		b.Transactions = append(b.Transactions, wireToRawTx(t))
	}
	return b
}

// GetWalletSyncData implements the Node Client's primary block-fetch call
// (spec §4.1 step 1-2, §4.6, §6).
func (c *Client) GetWalletSyncData(ctx context.Context, blockHashCheckpoints []crypto.Hash, startHeight, startTimestamp types.BlockHeight, blockCount int) ([]types.Block, *types.Block, error) {
	req := getWalletSyncDataRequest{
		BlockHashCheckpoints: blockHashCheckpoints,
		StartHeight:          startHeight,
		StartTimestamp:       startTimestamp,
		BlockCount:           blockCount,
	}
	var resp getWalletSyncDataResponse
	if err := c.postJSON(ctx, "/getwalletsyncdata", req, &resp); err != nil {
		return nil, nil, err
	}

	blocks := make([]types.Block, 0, len(resp.Items))
	for _, wb := range resp.Items {
		blocks = append(blocks, wireToBlock(wb))
	}
	var top *types.Block
	if resp.TopBlock != nil {
		b := wireToBlock(*resp.TopBlock)
		top = &b
	}
	return blocks, top, nil
}

type getGlobalIndexesRequest struct {
	StartHeight types.BlockHeight `json:"startHeight"`
	EndHeight   types.BlockHeight `json:"endHeight"`
}

type getGlobalIndexesResponse struct {
	Indexes map[string][]uint64 `json:"indexes"`
}

// GetGlobalIndexesForRange late-fills the global output index of inputs
// whose owning block did not carry it inline (spec §4.2's ±5-height
// window query).
func (c *Client) GetGlobalIndexesForRange(ctx context.Context, startHeight, endHeight types.BlockHeight) (map[crypto.Hash][]uint64, error) {
	req := getGlobalIndexesRequest{StartHeight: startHeight, EndHeight: endHeight}
	var resp getGlobalIndexesResponse
	if err := c.postJSON(ctx, "/get_o_indexes_range", req, &resp); err != nil {
		return nil, err
	}

	out := make(map[crypto.Hash][]uint64, len(resp.Indexes))
	for hexHash, idxs := range resp.Indexes {
		h, err := crypto.HashFromString(hexHash)
		if err != nil {
			return nil, types.NewWalletError(types.ErrMalformedResponse, "decoding transaction hash %s: %v", hexHash, err)
		}
		out[h] = idxs
	}
	return out, nil
}

type getRandomOutputsRequest struct {
	Amounts []uint64 `json:"amounts"`
	Mixin   int      `json:"mixin"`
}

type getRandomOutputsResponse struct {
	Outputs map[string][]modules.RandomOutput `json:"outputs"`
}

// GetRandomOutputs fetches decoy candidates for ring construction.
func (c *Client) GetRandomOutputs(ctx context.Context, amounts []uint64, mixin int) (map[uint64][]modules.RandomOutput, error) {
	req := getRandomOutputsRequest{Amounts: amounts, Mixin: mixin}
	var resp getRandomOutputsResponse
	if err := c.postJSON(ctx, "/getrandom_outs", req, &resp); err != nil {
		return nil, err
	}

	out := make(map[uint64][]modules.RandomOutput, len(amounts))
	for _, amount := range amounts {
		if outs, ok := resp.Outputs[formatAmount(amount)]; ok {
			out[amount] = outs
		}
	}
	return out, nil
}

type sendRawTransactionRequest struct {
	RawData string `json:"rawData"`
}

// SendRawTransaction relays a fully signed transaction to the network.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) error {
	req := sendRawTransactionRequest{RawData: encodeHex(raw)}
	return c.postJSON(ctx, "/sendrawtransaction", req, nil)
}

type getDaemonInfoResponse struct {
	Height     types.BlockHeight `json:"height"`
	Difficulty uint64            `json:"difficulty"`
	TxCount    int               `json:"txCount"`
	PeerCount  int               `json:"incoming_connections_count"`
	Synced     bool              `json:"synced"`
}

// GetDaemonInfo fetches the remote node's reported chain state, used by
// the Coordinator's daemon-info tick (spec §4.5).
func (c *Client) GetDaemonInfo(ctx context.Context) (modules.DaemonInfo, error) {
	var resp getDaemonInfoResponse
	if err := c.postJSON(ctx, "/info", struct{}{}, &resp); err != nil {
		return modules.DaemonInfo{}, err
	}
	return modules.DaemonInfo{
		NetworkHeight: resp.Height,
		LocalHeight:   resp.Height,
		PeerCount:     resp.PeerCount,
		Synced:        resp.Synced,
	}, nil
}

type getTransactionsStatusRequest struct {
	TransactionHashes []crypto.Hash `json:"transactionHashes"`
}

type getTransactionsStatusResponse struct {
	TransactionsInPool    []crypto.Hash `json:"transactionsInPool"`
	TransactionsUnknown   []crypto.Hash `json:"transactionsUnknown"`
}

// GetTransactionsStatus is used by the locked-transactions check (spec
// §4.4) to distinguish a still-pending send from one the mempool has
// already forgotten.
func (c *Client) GetTransactionsStatus(ctx context.Context, hashes []crypto.Hash) (inPool, notFound []crypto.Hash, err error) {
	req := getTransactionsStatusRequest{TransactionHashes: hashes}
	var resp getTransactionsStatusResponse
	if err := c.postJSON(ctx, "/get_transactions_status", req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.TransactionsInPool, resp.TransactionsUnknown, nil
}
