package chains

import (
	"testing"
	"time"

	"github.com/mjkid221/cctp-bridge/pkg/config"
)

func testConfigs() []config.ChainConfig {
	return []config.ChainConfig{
		{
			ID:                  "ethereum",
			Name:                "Ethereum Sepolia",
			NetworkType:         "evm",
			Environment:         "testnet",
			EVMChainID:          11155111,
			USDCAddress:         "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			CCTPDomain:          0,
			AttestationFast:     8 * time.Second,
			AttestationStandard: 13 * time.Minute,
		},
		{
			ID:          "solana",
			Name:        "Solana Devnet",
			NetworkType: "solana",
			Environment: "testnet",
			USDCAddress: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
			CCTPDomain:  5,
		},
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(testConfigs())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	chain, err := registry.Get("ethereum")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if chain.NetworkType != NetworkEVM || chain.EVMChainID != 11155111 {
		t.Errorf("unexpected chain %+v", chain)
	}
	if chain.Environment != EnvironmentTestnet {
		t.Errorf("unexpected environment %s", chain.Environment)
	}

	if len(registry.All()) != 2 {
		t.Errorf("expected 2 chains, got %d", len(registry.All()))
	}
}

func TestNewRegistryRejectsUnknownNetworkType(t *testing.T) {
	cfgs := testConfigs()
	cfgs[0].NetworkType = "cosmos"
	if _, err := NewRegistry(cfgs); err == nil {
		t.Fatal("expected error for unknown network type")
	}
}

func TestGetUnknownChain(t *testing.T) {
	registry, err := NewRegistry(testConfigs())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Get("tron"); err == nil {
		t.Fatal("expected error for unknown chain")
	}
}

func TestAttestationTime(t *testing.T) {
	registry, err := NewRegistry(testConfigs())
	if err != nil {
		t.Fatal(err)
	}
	chain, _ := registry.Get("ethereum")

	if got := chain.AttestationTime(true); got != 8*time.Second {
		t.Errorf("fast attestation %s, want 8s", got)
	}
	if got := chain.AttestationTime(false); got != 13*time.Minute {
		t.Errorf("standard attestation %s, want 13m", got)
	}
}
