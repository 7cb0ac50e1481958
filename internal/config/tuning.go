package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// All fields are pointers so that a partial JSON file only overrides the
// values it names; the Get* accessors supply compiled-in fallbacks.
type TuningConfig struct {
	// Association params
	IoUThreshold *float64 `json:"iou_threshold,omitempty"`

	// Track table params
	MaxAge              *int `json:"max_age,omitempty"`
	HitsToConfirm       *int `json:"hits_to_confirm,omitempty"`
	MaxTrajectoryPoints *int `json:"max_trajectory_points,omitempty"`

	// Memory ledger params
	MemoryFrames             *int     `json:"memory_frames,omitempty"`
	MinConfidenceForMemory   *float64 `json:"min_confidence_for_memory,omitempty"`
	SignificanceThreshold    *float64 `json:"significance_threshold,omitempty"`
	MinSignificantFrameCount *int     `json:"min_significant_frame_count,omitempty"`
	MinObjectArea            *float64 `json:"min_object_area,omitempty"`

	// Frame geometry (used for the size-score ceiling: half the frame area)
	FrameWidth  *int `json:"frame_width,omitempty"`
	FrameHeight *int `json:"frame_height,omitempty"`

	// Output sink params
	SinkQueueSize   *int    `json:"sink_queue_size,omitempty"`
	SinkStopTimeout *string `json:"sink_stop_timeout,omitempty"` // duration string like "10s"
}

// Compiled-in defaults, used when the JSON file omits a field.
const (
	defaultIoUThreshold             = 0.3
	defaultMaxAge                   = 30
	defaultHitsToConfirm            = 3
	defaultMaxTrajectoryPoints      = 512
	defaultMemoryFrames             = 30
	defaultMinConfidenceForMemory   = 0.5
	defaultSignificanceThreshold    = 0.4
	defaultMinSignificantFrameCount = 5
	defaultMinObjectArea            = 2500.0
	defaultFrameWidth               = 1920
	defaultFrameHeight              = 1080
	defaultSinkQueueSize            = 128
	defaultSinkStopTimeout          = 10 * time.Second
)

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted from the
// JSON file retain their compiled-in defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/vision/<layer>/
		"../../../../" + DefaultConfigPath, // from internal/vision/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.IoUThreshold != nil {
		if *c.IoUThreshold < 0 || *c.IoUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", *c.IoUThreshold)
		}
	}
	if c.MaxAge != nil && *c.MaxAge < 1 {
		return fmt.Errorf("max_age must be positive, got %d", *c.MaxAge)
	}
	if c.HitsToConfirm != nil && *c.HitsToConfirm < 1 {
		return fmt.Errorf("hits_to_confirm must be positive, got %d", *c.HitsToConfirm)
	}
	if c.MaxTrajectoryPoints != nil && *c.MaxTrajectoryPoints < 2 {
		return fmt.Errorf("max_trajectory_points must be at least 2, got %d", *c.MaxTrajectoryPoints)
	}
	if c.MemoryFrames != nil && *c.MemoryFrames < 1 {
		return fmt.Errorf("memory_frames must be positive, got %d", *c.MemoryFrames)
	}
	if c.MinConfidenceForMemory != nil {
		if *c.MinConfidenceForMemory < 0 || *c.MinConfidenceForMemory > 1 {
			return fmt.Errorf("min_confidence_for_memory must be between 0 and 1, got %f", *c.MinConfidenceForMemory)
		}
	}
	if c.SignificanceThreshold != nil {
		if *c.SignificanceThreshold < 0 || *c.SignificanceThreshold > 1 {
			return fmt.Errorf("significance_threshold must be between 0 and 1, got %f", *c.SignificanceThreshold)
		}
	}
	if c.MinSignificantFrameCount != nil && *c.MinSignificantFrameCount < 1 {
		return fmt.Errorf("min_significant_frame_count must be positive, got %d", *c.MinSignificantFrameCount)
	}
	if c.MinObjectArea != nil && *c.MinObjectArea <= 0 {
		return fmt.Errorf("min_object_area must be positive, got %f", *c.MinObjectArea)
	}
	if c.FrameWidth != nil && *c.FrameWidth < 1 {
		return fmt.Errorf("frame_width must be positive, got %d", *c.FrameWidth)
	}
	if c.FrameHeight != nil && *c.FrameHeight < 1 {
		return fmt.Errorf("frame_height must be positive, got %d", *c.FrameHeight)
	}
	if c.SinkQueueSize != nil && *c.SinkQueueSize < 1 {
		return fmt.Errorf("sink_queue_size must be positive, got %d", *c.SinkQueueSize)
	}
	if c.SinkStopTimeout != nil && *c.SinkStopTimeout != "" {
		if _, err := time.ParseDuration(*c.SinkStopTimeout); err != nil {
			return fmt.Errorf("invalid sink_stop_timeout '%s': %w", *c.SinkStopTimeout, err)
		}
	}
	return nil
}

// GetIoUThreshold returns the IoU acceptance threshold for association.
func (c *TuningConfig) GetIoUThreshold() float64 {
	if c.IoUThreshold != nil {
		return *c.IoUThreshold
	}
	return defaultIoUThreshold
}

// GetMaxAge returns the consecutive-miss count at which a track is removed.
func (c *TuningConfig) GetMaxAge() int {
	if c.MaxAge != nil {
		return *c.MaxAge
	}
	return defaultMaxAge
}

// GetHitsToConfirm returns the hit count at which a track is confirmed.
func (c *TuningConfig) GetHitsToConfirm() int {
	if c.HitsToConfirm != nil {
		return *c.HitsToConfirm
	}
	return defaultHitsToConfirm
}

// GetMaxTrajectoryPoints returns the in-memory trajectory cap per track.
func (c *TuningConfig) GetMaxTrajectoryPoints() int {
	if c.MaxTrajectoryPoints != nil {
		return *c.MaxTrajectoryPoints
	}
	return defaultMaxTrajectoryPoints
}

// GetMemoryFrames returns the presence-history capacity of a memory record.
func (c *TuningConfig) GetMemoryFrames() int {
	if c.MemoryFrames != nil {
		return *c.MemoryFrames
	}
	return defaultMemoryFrames
}

// GetMinConfidenceForMemory returns the confidence gate for record creation.
func (c *TuningConfig) GetMinConfidenceForMemory() float64 {
	if c.MinConfidenceForMemory != nil {
		return *c.MinConfidenceForMemory
	}
	return defaultMinConfidenceForMemory
}

// GetSignificanceThreshold returns the score above which a record is significant.
func (c *TuningConfig) GetSignificanceThreshold() float64 {
	if c.SignificanceThreshold != nil {
		return *c.SignificanceThreshold
	}
	return defaultSignificanceThreshold
}

// GetMinSignificantFrameCount returns the minimum presence updates before
// a record can become significant.
func (c *TuningConfig) GetMinSignificantFrameCount() int {
	if c.MinSignificantFrameCount != nil {
		return *c.MinSignificantFrameCount
	}
	return defaultMinSignificantFrameCount
}

// GetMinObjectArea returns the bbox area (px²) below which the size score
// scales linearly down from 1.0.
func (c *TuningConfig) GetMinObjectArea() float64 {
	if c.MinObjectArea != nil {
		return *c.MinObjectArea
	}
	return defaultMinObjectArea
}

// GetFrameWidth returns the expected frame width in pixels.
func (c *TuningConfig) GetFrameWidth() int {
	if c.FrameWidth != nil {
		return *c.FrameWidth
	}
	return defaultFrameWidth
}

// GetFrameHeight returns the expected frame height in pixels.
func (c *TuningConfig) GetFrameHeight() int {
	if c.FrameHeight != nil {
		return *c.FrameHeight
	}
	return defaultFrameHeight
}

// GetSinkQueueSize returns the bounded capacity of the output frame queue.
func (c *TuningConfig) GetSinkQueueSize() int {
	if c.SinkQueueSize != nil {
		return *c.SinkQueueSize
	}
	return defaultSinkQueueSize
}

// GetSinkStopTimeout returns how long Stop waits for the sink worker to join.
func (c *TuningConfig) GetSinkStopTimeout() time.Duration {
	if c.SinkStopTimeout != nil && *c.SinkStopTimeout != "" {
		if d, err := time.ParseDuration(*c.SinkStopTimeout); err == nil {
			return d
		}
	}
	return defaultSinkStopTimeout
}
