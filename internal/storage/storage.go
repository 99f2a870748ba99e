// Package storage keeps exported report artifacts and the history of
// report runs, either on local disk or on AWS (S3 for files, DynamoDB for
// run records).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/admissions-crm/internal/config"
)

// RunRecord describes one successful report execution.
type RunRecord struct {
	DefinitionID string    `json:"reporteId"`
	Type         string    `json:"tipo"`
	Format       string    `json:"formato"`
	Location     string    `json:"ubicacion"`
	Recipients   int       `json:"destinatarios"`
	RanAt        time.Time `json:"fechaEjecucion"`
}

// Storage stores artifacts and run records.
type Storage struct {
	config config.StorageConfig
	mu     sync.Mutex

	// AWS storage (optional)
	aws *AWSStorage
}

// New creates a Storage for the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{config: cfg}

	switch cfg.Type {
	case "aws":
		awsStorage, err := NewAWSStorage(ctx, cfg.DynamoDBTable, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		s.aws = awsStorage
	default:
		if cfg.LocalPath != "" {
			if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
				return nil, fmt.Errorf("creating storage directory: %w", err)
			}
		}
	}

	return s, nil
}

// S3 returns the bucket client and name, or nil when artifacts stay local.
func (s *Storage) S3() (*s3.Client, string) {
	if s == nil || s.aws == nil || s.aws.bucket == "" {
		return nil, ""
	}
	return s.aws.s3Client, s.aws.bucket
}

// SaveArtifact archives the file at path and returns where it now lives.
// Without a bucket or local directory the file stays where it is.
func (s *Storage) SaveArtifact(ctx context.Context, path string) (string, error) {
	if s.aws != nil && s.aws.bucket != "" {
		key := s.aws.ArtifactKey(filepath.Base(path), time.Now().UTC())
		if err := s.aws.PutFile(ctx, key, path); err != nil {
			return "", err
		}
		return fmt.Sprintf("s3://%s/%s", s.aws.bucket, key), nil
	}
	if s.config.LocalPath == "" {
		return path, nil
	}

	dir := filepath.Join(s.config.LocalPath, "artifacts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("archiving %s: %w", filepath.Base(path), err)
	}
	return dst, nil
}

// RecordRun appends a run record for its definition.
func (s *Storage) RecordRun(ctx context.Context, r RunRecord) error {
	if s.aws != nil && s.aws.tableName != "" {
		return s.aws.PutRun(ctx, r)
	}
	if s.config.LocalPath == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	runs, err := s.loadRuns(r.DefinitionID)
	if err != nil {
		return err
	}
	runs = append(runs, r)
	return s.saveToFile("runs", r.DefinitionID, runs)
}

// Runs returns the latest run records of a definition, newest first.
func (s *Storage) Runs(ctx context.Context, definitionID string, limit int) ([]RunRecord, error) {
	if s.aws != nil && s.aws.tableName != "" {
		return s.aws.QueryRuns(ctx, definitionID, limit)
	}
	if s.config.LocalPath == "" {
		return []RunRecord{}, nil
	}

	s.mu.Lock()
	runs, err := s.loadRuns(definitionID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].RanAt.After(runs[j].RanAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Storage) loadRuns(definitionID string) ([]RunRecord, error) {
	path := filepath.Join(s.config.LocalPath, "runs", filepath.Base(definitionID)+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []RunRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}
	var runs []RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decoding run history: %w", err)
	}
	return runs, nil
}

// saveToFile saves data to a JSON file
func (s *Storage) saveToFile(category, key string, data interface{}) error {
	dir := filepath.Join(s.config.LocalPath, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Sanitize key for filename
	safeKey := filepath.Base(key)
	path := filepath.Join(dir, safeKey+".json")

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
