// Package config holds the YAML-tagged tunables an operator can change
// without recompiling: the engine's size limits (spec §6 Constants)
// and the inputs to its EIP-712-style domain separator.
package config

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the top-level document a deployment loads.
type Config struct {
	EngineConfiguration EngineConfiguration `yaml:"EngineConfiguration"`
	DomainConfiguration DomainConfiguration `yaml:"DomainConfiguration"`
}

// EngineConfiguration carries the spec §6 Constants.
type EngineConfiguration struct {
	LookBackLength int `yaml:"LookBackLength"`
	MaxNumSigners  int `yaml:"MaxNumSigners"`
	MaxNumRules    int `yaml:"MaxNumRules"`
}

// DomainConfiguration carries the inputs to DOMAIN_SEPARATOR (spec §6).
type DomainConfiguration struct {
	Name              string `yaml:"Name"`
	Version           string `yaml:"Version"`
	ChainID           uint64 `yaml:"ChainID"`
	VerifyingContract string `yaml:"VerifyingContract"`
	Salt              string `yaml:"Salt"`
}

// Default returns the embedded default configuration.
func Default() (Config, error) {
	return Parse(defaultYAML)
}

// Load reads and parses a configuration file from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document into a Config.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return c, nil
}

// DomainSeparator builds DOMAIN_SEPARATOR from the config's
// DomainConfiguration (spec §6): keccak256 of the EIP-712 domain type
// hash, keccak(name), keccak(version), chainId, verifyingContract and
// salt, each as a 32-byte ABI word.
func (c Config) DomainSeparator() (ocrypto.Hash, error) {
	contract, err := decodeHexWord(c.DomainConfiguration.VerifyingContract)
	if err != nil {
		return ocrypto.Hash{}, fmt.Errorf("config: verifying contract: %w", err)
	}
	salt, err := decodeHexWord(c.DomainConfiguration.Salt)
	if err != nil {
		return ocrypto.Hash{}, fmt.Errorf("config: salt: %w", err)
	}

	domainTypeHash := ocrypto.Keccak256([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract,bytes32 salt)"))
	nameHash := ocrypto.Keccak256([]byte(c.DomainConfiguration.Name))
	versionHash := ocrypto.Keccak256([]byte(c.DomainConfiguration.Version))

	var chainIDWord [32]byte
	for i := 0; i < 8; i++ {
		chainIDWord[31-i] = byte(c.DomainConfiguration.ChainID >> (8 * i))
	}

	return ocrypto.Keccak256(ocrypto.EncodeWords(
		domainTypeHash.Bytes32(),
		nameHash.Bytes32(),
		versionHash.Bytes32(),
		chainIDWord,
		contract,
		salt,
	)), nil
}

func decodeHexWord(s string) ([32]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, err
	}
	if len(raw) > 32 {
		return [32]byte{}, fmt.Errorf("config: value wider than one word: %s", s)
	}
	return ocrypto.Pad32(raw), nil
}
