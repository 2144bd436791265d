package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact is the persisted output of one training run. The scaler and the
// forest were fitted on the same training split and are only ever used
// together.
type Artifact struct {
	RunID     string          `json:"run_id"`
	TrainedAt time.Time       `json:"trained_at"`
	Seed      int64           `json:"seed"`
	Accuracy  float64         `json:"accuracy"`
	Scaler    *StandardScaler `json:"scaler"`
	Forest    *RandomForest   `json:"forest"`
}

func (a *Artifact) Validate() error {
	if a == nil {
		return ErrNotTrained
	}
	if a.Scaler == nil || len(a.Scaler.Mean) == 0 {
		return errors.New("artifact has no scaler")
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return errors.New("artifact has no forest")
	}
	if len(a.Scaler.Mean) != FeatureCount || len(a.Scaler.Scale) != FeatureCount {
		return fmt.Errorf("scaler: %w: got %d, want %d", ErrDimension, len(a.Scaler.Mean), FeatureCount)
	}
	if a.Forest.NumFeatures != FeatureCount {
		return fmt.Errorf("forest: %w: got %d, want %d", ErrDimension, a.Forest.NumFeatures, FeatureCount)
	}
	for i, tree := range a.Forest.Trees {
		if tree == nil || len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
	}
	return nil
}

// SaveArtifact writes the artifact as JSON, replacing any existing file
// atomically.
func SaveArtifact(path string, artifact *Artifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadArtifact reads an artifact written by SaveArtifact. A missing file is
// reported with an error matching fs.ErrNotExist.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &artifact, nil
}
