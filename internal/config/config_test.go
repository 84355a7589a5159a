package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_LoadFromFile(t *testing.T) {
	// Create a temporary config file for testing
	testConfig := `# P25 decoder
[General]
Debug=0
LogLevel=WARN

[Input]
File=capture.dibits
Format=float
Realtime=1

[Decoder]
NAC=0x293
Queue=64

[Voice]
Enable=1
Address=10.0.0.5
Port=23460
AudioFile=out.pcm

[UDP]
Enable=yes
Address=10.0.0.6
Port=23461

[MQTT]
Enable=true
Broker=tcp://broker:1883
ClientID=scanner-1
Username=p25
Password=secret
Topic=scanner/p25
QoS=1
Retain=1

[Database]
Enable=1
Path=/var/lib/p25/p25.db
Payload=1
CacheSize=500

[Lookup]
File=aliases.yaml
Reload=10
Source=https://example.com/talkgroups.csv
Kind=Group
SyncHours=12

[Metrics]
Enable=1
Address=:9200
WebSocket=1`

	path := filepath.Join(t.TempDir(), "p25cai.ini")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	// Test loading the config
	config := NewConfig(path)
	if err := config.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Test General section
	if config.GetDebug() {
		t.Error("GetDebug() = true, want false")
	}
	if config.GetLogLevel() != "warn" {
		t.Errorf("GetLogLevel() = %q, want %q", config.GetLogLevel(), "warn")
	}

	// Test Input section
	if config.GetInputFile() != "capture.dibits" {
		t.Errorf("GetInputFile() = %q, want %q", config.GetInputFile(), "capture.dibits")
	}
	if config.GetInputFormat() != "float" {
		t.Errorf("GetInputFormat() = %q, want %q", config.GetInputFormat(), "float")
	}
	if !config.GetRealtime() {
		t.Error("GetRealtime() = false, want true")
	}

	// Test Decoder section
	if config.GetNAC() != 0x293 {
		t.Errorf("GetNAC() = %#x, want 0x293", config.GetNAC())
	}
	if config.GetQueueSize() != 64 {
		t.Errorf("GetQueueSize() = %d, want 64", config.GetQueueSize())
	}

	// Test Voice section
	if !config.GetVoiceEnabled() {
		t.Error("GetVoiceEnabled() = false, want true")
	}
	if config.GetVoiceAddress() != "10.0.0.5" || config.GetVoicePort() != 23460 {
		t.Errorf("voice = %s:%d, want 10.0.0.5:23460", config.GetVoiceAddress(), config.GetVoicePort())
	}
	if config.GetAudioFile() != "out.pcm" {
		t.Errorf("GetAudioFile() = %q, want %q", config.GetAudioFile(), "out.pcm")
	}

	// Test UDP section
	if !config.GetUDPEnabled() {
		t.Error("GetUDPEnabled() = false, want true")
	}
	if config.GetUDPAddress() != "10.0.0.6" || config.GetUDPPort() != 23461 {
		t.Errorf("udp = %s:%d, want 10.0.0.6:23461", config.GetUDPAddress(), config.GetUDPPort())
	}

	// Test MQTT section
	if !config.GetMQTTEnabled() {
		t.Error("GetMQTTEnabled() = false, want true")
	}
	if config.GetMQTTBroker() != "tcp://broker:1883" {
		t.Errorf("GetMQTTBroker() = %q", config.GetMQTTBroker())
	}
	if config.GetMQTTClientID() != "scanner-1" {
		t.Errorf("GetMQTTClientID() = %q", config.GetMQTTClientID())
	}
	if config.GetMQTTUsername() != "p25" || config.GetMQTTPassword() != "secret" {
		t.Error("MQTT credentials not parsed")
	}
	if config.GetMQTTTopic() != "scanner/p25" {
		t.Errorf("GetMQTTTopic() = %q", config.GetMQTTTopic())
	}
	if config.GetMQTTQoS() != 1 {
		t.Errorf("GetMQTTQoS() = %d, want 1", config.GetMQTTQoS())
	}
	if !config.GetMQTTRetain() {
		t.Error("GetMQTTRetain() = false, want true")
	}

	// Test Database section
	if !config.GetDatabaseEnabled() {
		t.Error("GetDatabaseEnabled() = false, want true")
	}
	if config.GetDatabasePath() != "/var/lib/p25/p25.db" {
		t.Errorf("GetDatabasePath() = %q", config.GetDatabasePath())
	}
	if !config.GetDatabasePayload() {
		t.Error("GetDatabasePayload() = false, want true")
	}
	if config.GetDatabaseCacheSize() != 500 {
		t.Errorf("GetDatabaseCacheSize() = %d, want 500", config.GetDatabaseCacheSize())
	}

	// Test Lookup section
	if config.GetLookupFile() != "aliases.yaml" {
		t.Errorf("GetLookupFile() = %q", config.GetLookupFile())
	}
	if config.GetLookupReload() != 10*time.Minute {
		t.Errorf("GetLookupReload() = %v, want 10m", config.GetLookupReload())
	}
	if config.GetLookupSource() != "https://example.com/talkgroups.csv" {
		t.Errorf("GetLookupSource() = %q", config.GetLookupSource())
	}
	if config.GetLookupKind() != "group" {
		t.Errorf("GetLookupKind() = %q, want group", config.GetLookupKind())
	}
	if config.GetLookupSyncInterval() != 12*time.Hour {
		t.Errorf("GetLookupSyncInterval() = %v, want 12h", config.GetLookupSyncInterval())
	}

	// Test Metrics section
	if !config.GetMetricsEnabled() {
		t.Error("GetMetricsEnabled() = false, want true")
	}
	if config.GetMetricsAddress() != ":9200" {
		t.Errorf("GetMetricsAddress() = %q", config.GetMetricsAddress())
	}
	if !config.GetWebSocket() {
		t.Error("GetWebSocket() = false, want true")
	}
}

func TestConfig_Defaults(t *testing.T) {
	config := NewConfig("unused.ini")

	if config.GetLogLevel() != "info" {
		t.Errorf("GetLogLevel() = %q, want info", config.GetLogLevel())
	}
	if config.GetInputFile() != "-" || config.GetInputFormat() != "dibit" {
		t.Errorf("input = %q %q, want - dibit", config.GetInputFile(), config.GetInputFormat())
	}
	if config.GetNAC() != 0 {
		t.Errorf("GetNAC() = %#x, want 0", config.GetNAC())
	}
	if config.GetQueueSize() != 256 {
		t.Errorf("GetQueueSize() = %d, want 256", config.GetQueueSize())
	}
	if config.GetVoicePort() != 23456 {
		t.Errorf("GetVoicePort() = %d, want 23456", config.GetVoicePort())
	}
	if config.GetMQTTTopic() != "p25" {
		t.Errorf("GetMQTTTopic() = %q, want p25", config.GetMQTTTopic())
	}
	if config.GetLookupReload() != 0 {
		t.Errorf("GetLookupReload() = %v, want 0", config.GetLookupReload())
	}
	if config.GetMQTTEnabled() || config.GetDatabaseEnabled() || config.GetMetricsEnabled() {
		t.Error("optional outputs should be disabled by default")
	}
}

func TestConfig_LoadFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(*Config) bool
	}{
		{
			name:  "debug overrides level",
			input: "[General]\nLogLevel=error\nDebug=1",
			check: func(c *Config) bool { return c.GetLogLevel() == "debug" },
		},
		{
			name:  "decimal NAC",
			input: "[Decoder]\nNAC=659",
			check: func(c *Config) bool { return c.GetNAC() == 0x293 },
		},
		{
			name:  "NAC wider than 12 bits is ignored",
			input: "[Decoder]\nNAC=0x1293",
			check: func(c *Config) bool { return c.GetNAC() == 0 },
		},
		{
			name:  "zero queue keeps default",
			input: "[Decoder]\nQueue=0",
			check: func(c *Config) bool { return c.GetQueueSize() == 256 },
		},
		{
			name:  "invalid QoS ignored",
			input: "[MQTT]\nQoS=3",
			check: func(c *Config) bool { return c.GetMQTTQoS() == 0 },
		},
		{
			name:  "comments and junk lines",
			input: "; comment\n# comment\n[UDP]\nnot a pair\nEnable=1",
			check: func(c *Config) bool { return c.GetUDPEnabled() },
		},
		{
			name:  "unknown section ignored",
			input: "[Info]\nDebug=1",
			check: func(c *Config) bool { return !c.GetDebug() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			if err := config.LoadFromString(tt.input); err != nil {
				t.Fatalf("LoadFromString() error = %v", err)
			}
			if !tt.check(config) {
				t.Errorf("check failed for input %q", tt.input)
			}
		})
	}
}

func TestConfig_Setters(t *testing.T) {
	config := NewConfig("")
	config.SetDebug(true)
	config.SetInputFile("in.bin")
	config.SetInputFormat("FLOAT")
	config.SetRealtime(true)
	config.SetNAC(0xF293)

	if !config.GetDebug() || config.GetInputFile() != "in.bin" || config.GetInputFormat() != "float" || !config.GetRealtime() {
		t.Error("setters not applied")
	}
	if config.GetNAC() != 0x293 {
		t.Errorf("GetNAC() = %#x, want 0x293", config.GetNAC())
	}
}

func TestConfig_LoadMissingFile(t *testing.T) {
	config := NewConfig(filepath.Join(t.TempDir(), "missing.ini"))
	if err := config.Load(); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
