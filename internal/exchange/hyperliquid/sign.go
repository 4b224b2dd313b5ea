package hyperliquid

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/vmihailenco/msgpack/v5"

	"hyperliquid-mcp/internal/types"
)

// Signer holds the secp256k1 key used to sign exchange actions and the
// address derived from it.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner parses a hex private key (with or without 0x prefix) and
// derives the signing address.
func NewSigner(hexKey string) (*Signer, error) {
	privateKey, err := crypto.HexToECDSA(NormalizePrivateKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to cast public key to ECDSA")
	}

	return &Signer{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// NormalizePrivateKey strips an optional 0x prefix so the key parses as
// raw hex.
func NormalizePrivateKey(hexKey string) string {
	return strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
}

// ValidatePrivateKey reports whether the hex string parses as a
// secp256k1 private key.
func ValidatePrivateKey(hexKey string) error {
	_, err := crypto.HexToECDSA(NormalizePrivateKey(hexKey))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	return nil
}

// Address returns the address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// signature is the r/s/v form the exchange endpoint expects.
type signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// actionHash computes the connection id for an L1 action: the keccak256 of
// msgpack(action) || nonce (8-byte big endian) || vault marker. The vault
// marker is a single 0x00 byte when no vault is set, otherwise 0x01
// followed by the 20-byte vault address.
func actionHash(action any, vaultAddress string, nonce uint64) (common.Hash, error) {
	data, err := msgpack.Marshal(action)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to msgpack action: %w", err)
	}

	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	data = append(data, nonceBytes...)

	if vaultAddress == "" {
		data = append(data, 0x00)
	} else {
		data = append(data, 0x01)
		data = append(data, common.HexToAddress(vaultAddress).Bytes()...)
	}

	return crypto.Keccak256Hash(data), nil
}

// signL1Action signs an exchange action with the EIP-712 Agent envelope.
// The source field distinguishes deployments: "a" for mainnet, "b" for
// testnet.
func (s *Signer) signL1Action(action any, vaultAddress string, nonce uint64, network types.Network) (signature, error) {
	hash, err := actionHash(action, vaultAddress, nonce)
	if err != nil {
		return signature{}, err
	}

	source := "b"
	if network == types.Mainnet {
		source = "a"
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Agent": []apitypes.Type{
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Agent",
		Domain: apitypes.TypedDataDomain{
			Name:              "Exchange",
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(1337)),
			VerifyingContract: common.Address{}.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": hash.Bytes(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return signature{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return signature{}, fmt.Errorf("failed to hash message: %w", err)
	}

	// Final digest: keccak256("\x19\x01" || domainSeparator || typedDataHash)
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	digest := crypto.Keccak256Hash(rawData)

	sig, err := crypto.Sign(digest.Bytes(), s.privateKey)
	if err != nil {
		return signature{}, fmt.Errorf("failed to sign action: %w", err)
	}

	return signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}
