// Package config parses the fabric's startup configuration file, grounded
// in original_source/src/util/config.h. The file format is a bespoke
// "KEY=value" list with '#' comments, predating any common config
// grammar; no corpus library (yaml/toml/ini) fits it without adding
// parsing surface the format doesn't need, so this one component stays on
// bufio/strings rather than a third-party config library.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Defaults mirror original_source/src/util/config.h's in-class initializers.
const (
	DefaultClientNum      = 3
	DefaultChunkSize      = 1024
	DefaultServerUpTime   = 20
	DefaultBuffLen        = 4096 * 16
	DefaultInferLineCount = 500
	DefaultListenPort     = 8080
	DefaultMaxPacketLen   = 1024
)

// Config is the fabric's runtime configuration, parsed from a KEY=value
// file. Fields not present in the file keep their defaults.
type Config struct {
	ClientNum     int
	ClientIP      string
	ServerIP      string
	ChunkSize     int
	ServerUpTime  int
	ListenPort    int
	MaxPacketLen  int
}

// Defaults returns a Config populated with the original's compiled-in
// defaults.
func Defaults() Config {
	return Config{
		ClientNum:    DefaultClientNum,
		ChunkSize:    DefaultChunkSize,
		ServerUpTime: DefaultServerUpTime,
		ListenPort:   DefaultListenPort,
		MaxPacketLen: DefaultMaxPacketLen,
	}
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads KEY=value lines from r, starting from Defaults().
func Parse(r io.Reader) (Config, error) {
	cfg := Defaults()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		key, value, ok := splitLine(line)
		if !ok {
			continue
		}
		switch key {
		case "CLIENT_NUM":
			cfg.ClientNum = atoiOr(value, cfg.ClientNum)
		case "CLIENT_IP":
			cfg.ClientIP = value
		case "SERVER_IP":
			cfg.ServerIP = value
		case "CHUNK_SIZE":
			cfg.ChunkSize = atoiOr(value, cfg.ChunkSize)
		case "SERVER_UP_TIME":
			cfg.ServerUpTime = atoiOr(value, cfg.ServerUpTime)
		case "SERVER_LISTEN_PORT":
			cfg.ListenPort = atoiOr(value, cfg.ListenPort)
		case "MAX_PACKET_LENGTH":
			cfg.MaxPacketLen = atoiOr(value, cfg.MaxPacketLen)
		}
	}
	if err := sc.Err(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// splitLine mirrors strtok(buff, "=") followed by strtok(NULL, "\n# "):
// split on the first '=', then trim the value at the first '#' or space.
func splitLine(line string) (key, value string, ok bool) {
	eq := strings.IndexByte(line, '=')
	if eq == -1 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:eq])
	if key == "" {
		return "", "", false
	}
	rest := line[eq+1:]
	if hash := strings.IndexByte(rest, '#'); hash != -1 {
		rest = rest[:hash]
	}
	if sp := strings.IndexByte(rest, ' '); sp != -1 {
		rest = rest[:sp]
	}
	return key, strings.TrimSpace(rest), true
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
