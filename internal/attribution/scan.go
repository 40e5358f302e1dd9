package attribution

import (
	"github.com/QbitNetwork/Qbit-wallet-backend/crypto"
	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// processBlockOutputs implements spec §4.2's output-scanning step for a
// single transaction: compute the ECDH derivation once per transaction,
// then underive each output's base spend key and check it against every
// tracked subwallet.
func (e *Engine) processBlockOutputs(tx types.RawTx, block types.Block, privateViewKey crypto.Scalar, subWallets []types.SubWallet) ([]types.TransactionInput, error) {
	if tx.PublicKey.IsNil() || len(tx.KeyOutputs) == 0 {
		return nil, nil
	}

	derivation, err := e.capability.GenerateKeyDerivation(tx.PublicKey, privateViewKey)
	if err != nil {
		return nil, types.NewWalletError(types.ErrScanIntegrityError, "deriving ECDH shared secret for tx %s: %v", tx.Hash, err)
	}

	byPub := make(map[crypto.Point]types.SubWallet, len(subWallets))
	for _, sw := range subWallets {
		byPub[sw.PublicSpendKey] = sw
	}

	var found []types.TransactionInput
	for i, out := range tx.KeyOutputs {
		base, err := e.capability.UnderivePublicKey(derivation, uint64(i), out.Key)
		if err != nil {
			continue
		}
		sw, owned := byPub[base]
		if !owned {
			continue
		}

		in := types.TransactionInput{
			Owner:         sw.PublicSpendKey,
			Amount:        out.Amount,
			BlockHeight:   block.Height,
			TxPublicKey:   tx.PublicKey,
			TxOutputIndex: uint64(i),
			OutputKey:     out.Key,
			UnlockTime:    tx.UnlockTime,
			ParentTxHash:  tx.Hash,
		}
		if out.GlobalIndex != nil {
			in.GlobalOutputIndex = *out.GlobalIndex
		}

		if !sw.PrivateSpendKey.IsNil() {
			ephemeralPriv, err := e.capability.DeriveSecretKey(derivation, uint64(i), sw.PrivateSpendKey)
			if err != nil {
				return nil, types.NewWalletError(types.ErrScanIntegrityError, "deriving ephemeral key for tx %s output %d: %v", tx.Hash, i, err)
			}
			keyImage, err := e.capability.GenerateKeyImage(out.Key, ephemeralPriv)
			if err != nil {
				return nil, types.NewWalletError(types.ErrScanIntegrityError, "generating key image for tx %s output %d: %v", tx.Hash, i, err)
			}
			in.KeyImage = keyImage
			in.PrivateEphemeral = ephemeralPriv
		}

		found = append(found, in)
	}
	return found, nil
}
