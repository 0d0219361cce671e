package client

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TokenRPC is the part of the Solana JSON-RPC API the balance oracle uses.
// *rpc.Client satisfies it.
type TokenRPC interface {
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
}

// TokenBalances reads the balance of one SPL mint for any wallet.
type TokenBalances struct {
	rpc        TokenRPC
	mint       solana.PublicKey
	commitment rpc.CommitmentType
	timeout    time.Duration
}

func NewTokenBalances(cli TokenRPC, mint, commitment string, timeout time.Duration) (*TokenBalances, error) {
	m, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, errors.Wrapf(err, "parse token mint %q", mint)
	}
	if commitment == "" {
		commitment = string(rpc.CommitmentConfirmed)
	}
	return &TokenBalances{rpc: cli, mint: m, commitment: rpc.CommitmentType(commitment), timeout: timeout}, nil
}

// NewRPC dials nothing; requests go out on first use.
func NewRPC(url string) *rpc.Client {
	return rpc.New(url)
}

// ValidWallet reports whether s is a base58 Solana public key.
func ValidWallet(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// TokenBalance sums every token account of wallet for the mint, in UI
// units. A wallet without token accounts has a zero balance.
func (t *TokenBalances) TokenBalance(ctx context.Context, wallet string) (float64, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return 0, errors.Wrapf(err, "parse wallet %q", wallet)
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	mint := t.mint
	accounts, err := t.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Commitment: t.commitment, Encoding: solana.EncodingBase64},
	)
	if err != nil {
		return 0, errors.Wrap(err, "get token accounts by owner")
	}
	if accounts == nil {
		return 0, nil
	}

	total := decimal.Zero
	for _, acc := range accounts.Value {
		if acc == nil {
			continue
		}
		bal, err := t.rpc.GetTokenAccountBalance(ctx, acc.Pubkey, t.commitment)
		if err != nil {
			return 0, errors.Wrapf(err, "get token account balance %s", acc.Pubkey)
		}
		if bal == nil || bal.Value == nil {
			continue
		}
		raw, err := decimal.NewFromString(bal.Value.Amount)
		if err != nil {
			return 0, errors.Wrapf(err, "parse token amount %q", bal.Value.Amount)
		}
		total = total.Add(raw.Shift(-int32(bal.Value.Decimals)))
	}
	return total.InexactFloat64(), nil
}
