package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the decoder configuration
type Config struct {
	filename string

	// General section
	debug    bool
	logLevel string

	// Input section
	inputFile   string
	inputFormat string
	realtime    bool

	// Decoder section
	nac       uint16
	queueSize uint32

	// Voice section
	voiceEnabled bool
	voiceAddress string
	voicePort    uint32
	audioFile    string

	// UDP section
	udpEnabled bool
	udpAddress string
	udpPort    uint32

	// MQTT section
	mqttEnabled  bool
	mqttBroker   string
	mqttClientID string
	mqttUsername string
	mqttPassword string
	mqttTopic    string
	mqttQoS      uint8
	mqttRetain   bool

	// Database section
	databaseEnabled   bool
	databasePath      string
	databasePayload   bool
	databaseCacheSize uint32

	// Lookup section
	lookupFile      string
	lookupReload    uint32 // minutes
	lookupSource    string
	lookupKind      string
	lookupSyncHours uint32

	// Metrics section
	metricsEnabled bool
	metricsAddress string
	websocket      bool
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,
		// Set reasonable defaults
		logLevel:    "info",
		inputFile:   "-",
		inputFormat: "dibit",
		queueSize:   256,

		voiceAddress: "127.0.0.1",
		voicePort:    23456,
		udpAddress:   "127.0.0.1",
		udpPort:      23457,

		mqttBroker: "tcp://127.0.0.1:1883",
		mqttTopic:  "p25",

		databasePath:      "data/p25.db",
		databaseCacheSize: 1000,

		lookupKind:      "group",
		lookupSyncHours: 24,

		metricsAddress: ":9125",
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	defer file.Close()

	return c.parseINI(file)
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parseINI(strings.NewReader(data))
}

func (c *Config) parseINI(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || line[0] == '#' || line[0] == ';' {
			continue
		}

		// Check for section header
		if line[0] == '[' && line[len(line)-1] == ']' {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		// Parse key=value pairs
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Parse based on current section
		switch currentSection {
		case "General":
			c.parseGeneralSection(key, value)
		case "Input":
			c.parseInputSection(key, value)
		case "Decoder":
			c.parseDecoderSection(key, value)
		case "Voice":
			c.parseVoiceSection(key, value)
		case "UDP":
			c.parseUDPSection(key, value)
		case "MQTT":
			c.parseMQTTSection(key, value)
		case "Database":
			c.parseDatabaseSection(key, value)
		case "Lookup":
			c.parseLookupSection(key, value)
		case "Metrics":
			c.parseMetricsSection(key, value)
		}
	}

	return scanner.Err()
}

func (c *Config) parseGeneralSection(key, value string) {
	switch key {
	case "Debug":
		c.debug = c.parseBool(value)
	case "LogLevel":
		c.logLevel = strings.ToLower(value)
	}
}

func (c *Config) parseInputSection(key, value string) {
	switch key {
	case "File":
		c.inputFile = value
	case "Format":
		c.inputFormat = strings.ToLower(value)
	case "Realtime":
		c.realtime = c.parseBool(value)
	}
}

func (c *Config) parseDecoderSection(key, value string) {
	switch key {
	case "NAC":
		// decimal, or hex with a 0x prefix
		if v, err := strconv.ParseUint(value, 0, 12); err == nil {
			c.nac = uint16(v)
		}
	case "Queue":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil && v > 0 {
			c.queueSize = uint32(v)
		}
	}
}

func (c *Config) parseVoiceSection(key, value string) {
	switch key {
	case "Enable":
		c.voiceEnabled = c.parseBool(value)
	case "Address":
		c.voiceAddress = value
	case "Port":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.voicePort = uint32(v)
		}
	case "AudioFile":
		c.audioFile = value
	}
}

func (c *Config) parseUDPSection(key, value string) {
	switch key {
	case "Enable":
		c.udpEnabled = c.parseBool(value)
	case "Address":
		c.udpAddress = value
	case "Port":
		if v, err := strconv.ParseUint(value, 10, 16); err == nil {
			c.udpPort = uint32(v)
		}
	}
}

func (c *Config) parseMQTTSection(key, value string) {
	switch key {
	case "Enable":
		c.mqttEnabled = c.parseBool(value)
	case "Broker":
		c.mqttBroker = value
	case "ClientID":
		c.mqttClientID = value
	case "Username":
		c.mqttUsername = value
	case "Password":
		c.mqttPassword = value
	case "Topic":
		c.mqttTopic = value
	case "QoS":
		if v, err := strconv.ParseUint(value, 10, 8); err == nil && v <= 2 {
			c.mqttQoS = uint8(v)
		}
	case "Retain":
		c.mqttRetain = c.parseBool(value)
	}
}

func (c *Config) parseDatabaseSection(key, value string) {
	switch key {
	case "Enable":
		c.databaseEnabled = c.parseBool(value)
	case "Path":
		c.databasePath = value
	case "Payload":
		c.databasePayload = c.parseBool(value)
	case "CacheSize":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.databaseCacheSize = uint32(v)
		}
	}
}

func (c *Config) parseLookupSection(key, value string) {
	switch key {
	case "File":
		c.lookupFile = value
	case "Reload":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.lookupReload = uint32(v)
		}
	case "Source":
		c.lookupSource = value
	case "Kind":
		c.lookupKind = strings.ToLower(value)
	case "SyncHours":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.lookupSyncHours = uint32(v)
		}
	}
}

func (c *Config) parseMetricsSection(key, value string) {
	switch key {
	case "Enable":
		c.metricsEnabled = c.parseBool(value)
	case "Address":
		c.metricsAddress = value
	case "WebSocket":
		c.websocket = c.parseBool(value)
	}
}

func (c *Config) parseBool(value string) bool {
	return value == "1" || strings.ToLower(value) == "true" || strings.ToLower(value) == "yes"
}

// Setters used by command line overrides
func (c *Config) SetDebug(v bool)          { c.debug = v }
func (c *Config) SetInputFile(v string)    { c.inputFile = v }
func (c *Config) SetInputFormat(v string)  { c.inputFormat = strings.ToLower(v) }
func (c *Config) SetRealtime(v bool)       { c.realtime = v }
func (c *Config) SetNAC(v uint16)          { c.nac = v & 0xFFF }

// Getter methods for General section
func (c *Config) GetDebug() bool { return c.debug }

// GetLogLevel returns the configured level, or debug when Debug is set.
func (c *Config) GetLogLevel() string {
	if c.debug {
		return "debug"
	}
	return c.logLevel
}

// Getter methods for Input section
func (c *Config) GetInputFile() string   { return c.inputFile }
func (c *Config) GetInputFormat() string { return c.inputFormat }
func (c *Config) GetRealtime() bool      { return c.realtime }

// Getter methods for Decoder section
func (c *Config) GetNAC() uint16       { return c.nac }
func (c *Config) GetQueueSize() uint32 { return c.queueSize }

// Getter methods for Voice section
func (c *Config) GetVoiceEnabled() bool   { return c.voiceEnabled }
func (c *Config) GetVoiceAddress() string { return c.voiceAddress }
func (c *Config) GetVoicePort() uint32    { return c.voicePort }
func (c *Config) GetAudioFile() string    { return c.audioFile }

// Getter methods for UDP section
func (c *Config) GetUDPEnabled() bool   { return c.udpEnabled }
func (c *Config) GetUDPAddress() string { return c.udpAddress }
func (c *Config) GetUDPPort() uint32    { return c.udpPort }

// Getter methods for MQTT section
func (c *Config) GetMQTTEnabled() bool    { return c.mqttEnabled }
func (c *Config) GetMQTTBroker() string   { return c.mqttBroker }
func (c *Config) GetMQTTClientID() string { return c.mqttClientID }
func (c *Config) GetMQTTUsername() string { return c.mqttUsername }
func (c *Config) GetMQTTPassword() string { return c.mqttPassword }
func (c *Config) GetMQTTTopic() string    { return c.mqttTopic }
func (c *Config) GetMQTTQoS() uint8       { return c.mqttQoS }
func (c *Config) GetMQTTRetain() bool     { return c.mqttRetain }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool     { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string      { return c.databasePath }
func (c *Config) GetDatabasePayload() bool     { return c.databasePayload }
func (c *Config) GetDatabaseCacheSize() uint32 { return c.databaseCacheSize }

// Getter methods for Lookup section
func (c *Config) GetLookupFile() string { return c.lookupFile }
func (c *Config) GetLookupReload() time.Duration {
	return time.Duration(c.lookupReload) * time.Minute
}
func (c *Config) GetLookupSource() string { return c.lookupSource }
func (c *Config) GetLookupKind() string   { return c.lookupKind }
func (c *Config) GetLookupSyncInterval() time.Duration {
	return time.Duration(c.lookupSyncHours) * time.Hour
}

// Getter methods for Metrics section
func (c *Config) GetMetricsEnabled() bool   { return c.metricsEnabled }
func (c *Config) GetMetricsAddress() string { return c.metricsAddress }
func (c *Config) GetWebSocket() bool        { return c.websocket }
