//go:build ignore

// This script signs a login challenge with the bridge wallet key and
// exchanges it for a session token.
// Run with: BRIDGE_EVM_PRIVATE_KEY=<hex> go run scripts/session-token.go
//
// Optional env:
//   BRIDGE_URL - server base URL (default http://localhost:8080)

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

func main() {
	keyHex := os.Getenv("BRIDGE_EVM_PRIVATE_KEY")
	if keyHex == "" {
		fmt.Fprintln(os.Stderr, "BRIDGE_EVM_PRIVATE_KEY is required")
		os.Exit(1)
	}
	baseURL := os.Getenv("BRIDGE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse key: %v\n", err)
		os.Exit(1)
	}

	message := fmt.Sprintf("cctp-bridge login %d", time.Now().Unix())
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	sig, err := crypto.Sign(crypto.Keccak256([]byte(prefixed)), key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign challenge: %v\n", err)
		os.Exit(1)
	}
	sig[64] += 27

	body, _ := json.Marshal(map[string]string{
		"message":   message,
		"signature": fmt.Sprintf("0x%x", sig),
	})

	resp, err := http.Post(baseURL+"/api/v1/session", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "call server: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server returned %d: %s\n", resp.StatusCode, out)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
