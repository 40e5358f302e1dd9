package persist

import (
	"fmt"

	"github.com/QbitNetwork/Qbit-wallet-backend/types"
)

// SaveWalletDocument atomically persists doc to path.
func SaveWalletDocument(path string, doc types.WalletDocument) error {
	return SaveJSON(path, doc)
}

// LoadWalletDocument loads and version-checks a WalletDocument from path.
func LoadWalletDocument(path string) (types.WalletDocument, error) {
	var doc types.WalletDocument
	if err := LoadJSON(path, &doc); err != nil {
		return doc, err
	}
	if doc.WalletFileFormatVersion != types.WalletFileFormatVersion {
		return doc, fmt.Errorf("persist: wallet file %s has format version %d, expected %d",
			path, doc.WalletFileFormatVersion, types.WalletFileFormatVersion)
	}
	return doc, nil
}
