package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds settings grouped by section, as read from an INI-style file.
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

var (
	globalConfig *Config
	once         sync.Once
)

// sectionOrder fixes the layout of generated settings files.
var sectionOrder = []string{"Lexer", "Output", "History", "Server", "JWT", "TLS", "Debug"}

// Initialize loads the global configuration from configPath. A default file
// is written when none exists, and settings.local.cfg next to it overrides
// individual values.
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		globalConfig, err = LoadFrom(configPath)
		if err != nil {
			return
		}
		localPath := filepath.Join(filepath.Dir(configPath), "settings.local.cfg")
		if _, statErr := os.Stat(localPath); statErr == nil {
			// A broken overlay leaves the base configuration in place.
			_ = globalConfig.mergeFile(localPath)
		}
	})
	return err
}

// Reset drops the global configuration so Initialize can run again.
func Reset() {
	globalConfig = nil
	once = sync.Once{}
}

// Use installs cfg as the global configuration.
func Use(cfg *Config) {
	globalConfig = cfg
}

// LoadFrom reads the configuration file at filePath, creating it with
// defaults when it does not exist yet.
func LoadFrom(filePath string) (*Config, error) {
	config := New()
	config.filePath = filePath

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		config.createDefaultConfig()
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	if err := config.mergeFile(filePath); err != nil {
		return nil, err
	}
	return config, nil
}

// New returns an empty configuration that is not backed by a file.
func New() *Config {
	return &Config{settings: make(map[string]map[string]string)}
}

func (c *Config) mergeFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := c.parse(file); err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return nil
}

// parse reads sections and key/value pairs; later values win.
func (c *Config) parse(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	scanner := bufio.NewScanner(r)
	currentSection := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = line[1 : len(line)-1]
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}

		if strings.Contains(line, "=") && currentSection != "" {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			c.settings[currentSection][key] = value
		}
	}
	return scanner.Err()
}

// createDefaultConfig fills in the settings the analyzer and its tools read.
func (c *Config) createDefaultConfig() {
	c.settings["Lexer"] = map[string]string{
		"log_tokens": "false",
	}

	c.settings["Output"] = map[string]string{
		"write_out_file": "true",
		"out_extension":  ".out",
	}

	c.settings["History"] = map[string]string{
		"enabled":   "false",
		"db_path":   "minilang.db",
		"keep_runs": "500",
	}

	c.settings["Server"] = map[string]string{
		"addr":                ":8080",
		"require_auth":        "false",
		"max_source_kb":       "512",
		"write_wait_timeout":  "10s",
		"pong_timeout":        "60s",
		"allowed_origins":     "",
		"requests_per_minute": "600",
	}

	c.settings["JWT"] = map[string]string{
		"secret_key":             "change_me",
		"token_expiration_hours": "24",
	}

	c.settings["TLS"] = map[string]string{
		"enable_tls":         "false",
		"enable_letsencrypt": "false",
		"domain":             "",
		"letsencrypt_email":  "",
		"cert_cache_dir":     "./certs",
		"cert_file":          "./certs/server.crt",
		"key_file":           "./certs/server.key",
		"http_addr":          ":80",
	}

	c.settings["Debug"] = map[string]string{
		"enable_debug_logging": "true",
		"log_level":            "INFO",
		"log_file":             "minilang.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		"log_lexer":            "false",
		"log_output":           "true",
		"log_history":          "true",
		"log_server":           "true",
		"log_websocket":        "false",
		"log_auth":             "true",
		"log_security":         "true",
		"log_config":           "true",
		"log_general":          "true",
	}
}

// saveToFile writes the configuration in section order with sorted keys.
func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprint(w, "; MiniLang analyzer configuration\n")
	fmt.Fprint(w, "; Generated automatically - modify with care\n;\n\n")

	for _, section := range c.sections() {
		settings := c.settings[section]
		fmt.Fprintf(w, "[%s]\n", section)

		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%s = %s\n", key, settings[key])
		}
		fmt.Fprint(w, "\n")
	}

	return w.Flush()
}

// sections lists known sections first, then any others alphabetically.
func (c *Config) sections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, section := range sectionOrder {
		if _, ok := c.settings[section]; ok {
			out = append(out, section)
			seen[section] = true
		}
	}
	var extra []string
	for section := range c.settings {
		if !seen[section] {
			extra = append(extra, section)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Get returns a setting of c and whether it exists.
func (c *Config) Get(section, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if sectionMap, exists := c.settings[section]; exists {
		value, ok := sectionMap[key]
		return value, ok
	}
	return "", false
}

// Set stores a setting in c.
func (c *Config) Set(section, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settings[section] == nil {
		c.settings[section] = make(map[string]string)
	}
	c.settings[section][key] = value
}

// GetString returns a string setting from the global configuration.
func GetString(section, key, defaultValue string) string {
	if globalConfig == nil {
		return defaultValue
	}
	if value, ok := globalConfig.Get(section, key); ok {
		return value
	}
	return defaultValue
}

// GetInt returns an integer setting
func GetInt(section, key string, defaultValue int) int {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(str); err == nil {
		return value
	}

	return defaultValue
}

// GetFloat returns a float setting
func GetFloat(section, key string, defaultValue float64) float64 {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseFloat(str, 64); err == nil {
		return value
	}

	return defaultValue
}

// GetBool returns a boolean setting
func GetBool(section, key string, defaultValue bool) bool {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := strconv.ParseBool(str); err == nil {
		return value
	}

	return defaultValue
}

// GetDuration returns a duration setting such as "10s" or "5m".
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}

	if value, err := time.ParseDuration(str); err == nil {
		return value
	}

	return defaultValue
}

// GetSection returns a copy of all key-value pairs of a section.
func GetSection(sectionName string) map[string]string {
	result := make(map[string]string)
	if globalConfig == nil {
		return result
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()

	for key, value := range globalConfig.settings[sectionName] {
		result[key] = value
	}
	return result
}

// SetString sets a string setting in the global configuration.
func SetString(section, key, value string) {
	if globalConfig == nil {
		return
	}
	globalConfig.Set(section, key, value)
}

// Save writes the global configuration back to its file.
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}
	if globalConfig.filePath == "" {
		return fmt.Errorf("configuration has no backing file")
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()

	return globalConfig.saveToFile()
}
