package attendance

import "sync"

// SchoolConfig is the school-wide configuration read by the classifier. The display fields
// are carried for cards and dashboards only.
type SchoolConfig struct {
	StartTime       string
	Name            string
	Address         string
	EstablishedYear string
	LogoURL         string
}

// ConfigHolder owns the current SchoolConfig. Updates replace the value wholesale.
type ConfigHolder struct {
	mu  sync.RWMutex
	cfg SchoolConfig
}

// NewConfigHolder returns a holder whose start time defaults to DefaultStartTime.
func NewConfigHolder() *ConfigHolder {
	return &ConfigHolder{cfg: SchoolConfig{StartTime: DefaultStartTime}}
}

func (h *ConfigHolder) Get() SchoolConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Replace overwrites the configuration. An empty start time is stored as the default.
func (h *ConfigHolder) Replace(cfg SchoolConfig) {
	if cfg.StartTime == "" {
		cfg.StartTime = DefaultStartTime
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

// StartTime returns the configured start time as stored, which may be malformed;
// Classify applies the fallback.
func (h *ConfigHolder) StartTime() string {
	return h.Get().StartTime
}
