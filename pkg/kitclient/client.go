// Package kitclient implements the transfer kit contract over HTTP.
//
// The actual CCTP protocol legs run in a sidecar process that wraps
// Circle's SDK. This client serializes transfer calls to that sidecar
// and replays the event stream it sends back through a local emitter,
// so the orchestration layer sees the same wildcard events it would get
// from an in-process kit.
package kitclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

const (
	defaultRequestTimeout = 30 * time.Second

	// Limit error-body reads so we don't accidentally slurp huge responses.
	maxErrBodyBytes = 4096

	// Event lines can carry attestation payloads; keep the scanner roomy.
	maxLineBytes = 1 << 20
)

// Client talks to the kit sidecar. It embeds an Emitter so callers can
// subscribe with On/Off exactly as with an in-process kit.
type Client struct {
	*protocol.Emitter

	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ protocol.Kit = (*Client)(nil)

// New creates a kit client for the sidecar at baseURL. requestTimeout
// bounds estimate and retry calls; zero applies a default. Bridge calls
// stream and are bounded only by the caller's context.
func New(baseURL string, requestTimeout time.Duration, logger *zap.Logger) *Client {
	if requestTimeout == 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Client{
		Emitter:    protocol.NewEmitter(),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.Named("kitclient"),
	}
}

// endpointPayload is the wire form of a protocol.Endpoint. Adapters
// cannot cross the process boundary, so only the wallet address and the
// chain material the sidecar needs travel with the request.
type endpointPayload struct {
	ChainID          string `json:"chainId"`
	NetworkType      string `json:"networkType"`
	Environment      string `json:"environment"`
	EVMChainID       int64  `json:"evmChainId,omitempty"`
	RPCURL           string `json:"rpcUrl"`
	USDCAddress      string `json:"usdcAddress"`
	CCTPDomain       uint32 `json:"cctpDomain"`
	WalletAddress    string `json:"walletAddress"`
	RecipientAddress string `json:"recipientAddress,omitempty"`
}

func toPayload(e protocol.Endpoint) endpointPayload {
	return endpointPayload{
		ChainID:          e.Chain.ID,
		NetworkType:      string(e.Chain.NetworkType),
		Environment:      string(e.Chain.Environment),
		EVMChainID:       e.Chain.EVMChainID,
		RPCURL:           e.Chain.RPCURL,
		USDCAddress:      e.Chain.USDCAddress,
		CCTPDomain:       e.Chain.CCTPDomain,
		WalletAddress:    e.Adapter.WalletAddress(),
		RecipientAddress: e.RecipientAddress,
	}
}

type transferPayload struct {
	From   endpointPayload `json:"from"`
	To     endpointPayload `json:"to"`
	Amount string          `json:"amount"`
	Speed  string          `json:"speed"`
}

func toTransferPayload(req *protocol.TransferRequest) transferPayload {
	return transferPayload{
		From:   toPayload(req.From),
		To:     toPayload(req.To),
		Amount: req.Amount,
		Speed:  string(req.Config.TransferSpeed),
	}
}

type retryPayload struct {
	Previous *protocol.BridgeResult `json:"previous"`
	From     endpointPayload        `json:"from"`
	To       endpointPayload        `json:"to"`
}

// Estimate quotes fees for a prospective transfer.
func (c *Client) Estimate(ctx context.Context, req *protocol.TransferRequest) (*protocol.EstimateResult, error) {
	var result protocol.EstimateResult
	if err := c.postJSON(ctx, "/v1/estimate", toTransferPayload(req), &result); err != nil {
		return nil, fmt.Errorf("kit estimate: %w", err)
	}
	return &result, nil
}

// Bridge executes a transfer. The sidecar responds with a newline
// delimited JSON stream: zero or more event lines followed by one
// result line. Events are re-emitted locally as they arrive.
func (c *Client) Bridge(ctx context.Context, req *protocol.TransferRequest) (*protocol.BridgeResult, error) {
	result, err := c.stream(ctx, "/v1/bridge", toTransferPayload(req))
	if err != nil {
		return nil, fmt.Errorf("kit bridge: %w", err)
	}
	return result, nil
}

// Retry resumes a failed transfer from its retained result.
func (c *Client) Retry(ctx context.Context, previous *protocol.BridgeResult, endpoints protocol.RetryEndpoints) (*protocol.BridgeResult, error) {
	payload := retryPayload{
		Previous: previous,
		From:     endpointPayload{WalletAddress: endpoints.From.WalletAddress()},
		To:       endpointPayload{WalletAddress: endpoints.To.WalletAddress()},
	}
	result, err := c.stream(ctx, "/v1/retry", payload)
	if err != nil {
		return nil, fmt.Errorf("kit retry: %w", err)
	}
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	resp, err := c.post(ctx, path, payload, c.httpClient)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// streamLine is one line of a bridge/retry response stream.
type streamLine struct {
	Event  *protocol.Event        `json:"event,omitempty"`
	Result *protocol.BridgeResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func (c *Client) stream(ctx context.Context, path string, payload any) (*protocol.BridgeResult, error) {
	// No client timeout here: a standard transfer legitimately runs for
	// many minutes while attestation settles.
	resp, err := c.post(ctx, path, payload, &http.Client{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var line streamLine
		if err := json.Unmarshal(data, &line); err != nil {
			c.logger.Warn("skipping malformed stream line", zap.Error(err))
			continue
		}
		switch {
		case line.Error != "":
			return nil, fmt.Errorf("kit reported: %s", line.Error)
		case line.Result != nil:
			return line.Result, nil
		case line.Event != nil:
			c.Emit(*line.Event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, fmt.Errorf("stream ended without a result")
}

func (c *Client) post(ctx context.Context, path string, payload any, client *http.Client) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call kit: %w", err)
	}
	return resp, nil
}

func (c *Client) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes))
	if len(body) > 0 {
		return fmt.Errorf("kit returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return fmt.Errorf("kit returned %d", resp.StatusCode)
}
