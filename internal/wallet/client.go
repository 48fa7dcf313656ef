// Package wallet reads on-chain balances for the fleet wallet over JSON-RPC.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/captainbotgit/mission-control/internal/config"
	"github.com/captainbotgit/mission-control/internal/models"
)

const (
	// balanceOfSelector is the ERC-20 balanceOf(address) function selector.
	balanceOfSelector = "0x70a08231"
	nativeDecimals    = 18
	// DustThreshold hides balances too small to matter.
	DustThreshold = 0.0001
	// FallbackPrice is used for the native coin when the price lookup fails.
	FallbackPrice = 0.5
)

// ErrNotConfigured is returned when no wallet address or RPC endpoint is set.
var ErrNotConfigured = errors.New("wallet not configured")

// Client fetches balances and the native coin price.
type Client struct {
	address    string
	rpcURL     string
	priceURL   string
	native     string
	tokens     []config.TokenConfig
	httpClient *http.Client
	log        *zap.Logger
	nextID     atomic.Int64
	now        func() time.Time
}

// NewClient creates a wallet client for address.
func NewClient(address, rpcURL, priceURL string, wallet config.WalletConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	native := wallet.NativeSymbol
	if native == "" {
		native = "MATIC"
	}
	return &Client{
		address:    address,
		rpcURL:     rpcURL,
		priceURL:   priceURL,
		native:     native,
		tokens:     wallet.Tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("wallet"),
		now:        time.Now,
	}
}

// Enabled reports whether the client has an address and an RPC endpoint.
func (c *Client) Enabled() bool {
	return c != nil && c.address != "" && c.rpcURL != ""
}

// Snapshot fetches every balance concurrently and values them in USD.
// Stablecoin tokens are valued 1:1.
func (c *Client) Snapshot(ctx context.Context) (*models.WalletSnapshot, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	var (
		native float64
		price  float64
		tokens = make([]float64, len(c.tokens))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		native, err = c.nativeBalance(gctx)
		return err
	})
	for i, tok := range c.tokens {
		g.Go(func() error {
			bal, err := c.tokenBalance(gctx, tok.Address, tok.Decimals)
			if err != nil {
				return fmt.Errorf("%s balance: %w", tok.Symbol, err)
			}
			tokens[i] = bal
			return nil
		})
	}
	g.Go(func() error {
		price = c.nativePrice(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &models.WalletSnapshot{
		Address:   c.address,
		Tokens:    []models.TokenBalance{},
		Timestamp: c.now().UTC(),
	}
	for i, tok := range c.tokens {
		snap.Tokens = append(snap.Tokens, models.TokenBalance{Symbol: tok.Symbol, Balance: tokens[i], USDValue: tokens[i]})
	}
	snap.Tokens = append(snap.Tokens, models.TokenBalance{Symbol: c.native, Balance: native, USDValue: native * price})

	snap.Tokens = FilterDust(snap.Tokens)
	for _, t := range snap.Tokens {
		snap.TotalValue += t.USDValue
	}
	return snap, nil
}

// FilterDust drops balances at or below DustThreshold.
func FilterDust(tokens []models.TokenBalance) []models.TokenBalance {
	out := tokens[:0]
	for _, t := range tokens {
		if t.Balance > DustThreshold {
			out = append(out, t)
		}
	}
	return out
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params ...any) (string, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc %s returned status %d", method, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode rpc %s: %w", method, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("rpc %s: %s (%d)", method, out.Error.Message, out.Error.Code)
	}
	return out.Result, nil
}

func (c *Client) nativeBalance(ctx context.Context) (float64, error) {
	result, err := c.call(ctx, "eth_getBalance", c.address, "latest")
	if err != nil {
		return 0, err
	}
	return scaleHex(result, nativeDecimals)
}

func (c *Client) tokenBalance(ctx context.Context, token string, decimals int) (float64, error) {
	data := balanceOfSelector + fmt.Sprintf("%064s", strings.TrimPrefix(strings.ToLower(c.address), "0x"))
	result, err := c.call(ctx, "eth_call", map[string]string{"to": token, "data": data}, "latest")
	if err != nil {
		return 0, err
	}
	return scaleHex(result, decimals)
}

// nativePrice looks up the USD price of the native coin, falling back to
// FallbackPrice on any failure.
func (c *Client) nativePrice(ctx context.Context) float64 {
	if c.priceURL == "" {
		return FallbackPrice
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.priceURL, nil)
	if err != nil {
		return FallbackPrice
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("price lookup failed", zap.Error(err))
		return FallbackPrice
	}
	defer resp.Body.Close()

	// {"<coin-id>": {"usd": 0.42}}
	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("price lookup returned malformed body", zap.Error(err))
		return FallbackPrice
	}
	for _, quote := range body {
		if usd, ok := quote["usd"]; ok && usd > 0 {
			return usd
		}
	}
	return FallbackPrice
}

// scaleHex parses a 0x-prefixed quantity and divides it by 10^decimals.
// An empty result ("0x") is zero.
func scaleHex(hex string, decimals int) (float64, error) {
	digits := strings.TrimPrefix(hex, "0x")
	if digits == "" {
		return 0, nil
	}
	n, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return 0, fmt.Errorf("invalid quantity %q", hex)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f, _ := new(big.Rat).SetFrac(n, scale).Float64()
	return f, nil
}
